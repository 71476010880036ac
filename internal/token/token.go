// Package token signs the OAuth state parameter so the callback can trust
// where to send the user and reject replays past the state TTL.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

// MaxReturnToLength bounds the post-login redirect embedded in the state.
const MaxReturnToLength = 200

// DefaultReturnTo is used when no redirect is requested.
const DefaultReturnTo = "/"

type payload struct {
	Nonce    string `json:"n"`
	ReturnTo string `json:"r"`
	TS       int64  `json:"t"`
}

// State is the verified content of a state token.
type State struct {
	Nonce    string
	ReturnTo string
	IssuedAt time.Time
}

// validateReturnTo accepts only same-origin absolute paths.
func validateReturnTo(returnTo string) error {
	if len(returnTo) > MaxReturnToLength {
		return fmt.Errorf("return path too long: %d chars, max %d", len(returnTo), MaxReturnToLength)
	}
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") || strings.Contains(returnTo, "\\") {
		return fmt.Errorf("return path %q must be a local path", returnTo)
	}
	return nil
}

// Generate creates a signed state token carrying returnTo.
func Generate(returnTo string, secret []byte) (string, error) {
	if returnTo == "" {
		returnTo = DefaultReturnTo
	}
	if err := validateReturnTo(returnTo); err != nil {
		return "", fmt.Errorf("state validation failed: %w", err)
	}

	pl := payload{
		Nonce:    uuid.NewString(),
		ReturnTo: returnTo,
		TS:       time.Now().Unix(),
	}
	data, err := json.Marshal(pl)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	sig := mac.Sum(nil)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(data) + "." + enc.EncodeToString(sig), nil
}

// Verify checks the token integrity and expiry and returns the state.
// A zero ttl disables the expiry check.
func Verify(token string, secret []byte, ttl time.Duration) (State, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return State{}, ErrInvalid
	}
	enc := base64.RawURLEncoding
	data, err := enc.DecodeString(parts[0])
	if err != nil {
		return State{}, ErrInvalid
	}
	sig, err := enc.DecodeString(parts[1])
	if err != nil {
		return State{}, ErrInvalid
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	if !hmac.Equal(mac.Sum(nil), sig) {
		return State{}, ErrInvalid
	}

	var pl payload
	if err := json.Unmarshal(data, &pl); err != nil {
		return State{}, ErrInvalid
	}
	issued := time.Unix(pl.TS, 0)
	if ttl > 0 && time.Since(issued) > ttl {
		return State{}, ErrExpired
	}
	if validateReturnTo(pl.ReturnTo) != nil {
		return State{}, ErrInvalid
	}
	return State{Nonce: pl.Nonce, ReturnTo: pl.ReturnTo, IssuedAt: issued}, nil
}
