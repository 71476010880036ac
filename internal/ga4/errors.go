package ga4

import (
	"errors"
	"fmt"
	"strings"
)

// MinTokenLength is the shortest bearer token accepted before calling the API.
const MinTokenLength = 20

// ExpiredTokenMessage is shown to users whose Google token was rejected.
const ExpiredTokenMessage = "Token d'accès expiré ou invalide. Veuillez vous reconnecter avec Google."

var (
	// ErrInvalidToken is returned when the access token is missing or malformed.
	ErrInvalidToken = errors.New("invalid access token format")
	// ErrTokenExpired matches APIErrors caused by an expired or revoked token.
	ErrTokenExpired = errors.New("access token expired or invalid")
)

// APIError is a non-success response from the Data API.
type APIError struct {
	StatusCode int
	Status     string
	// Message is the remote error message, the raw body, or a generic status line.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ga4 api status %d: %s", e.StatusCode, e.Message)
}

// Is reports whether the error is an authentication failure.
func (e *APIError) Is(target error) bool {
	return target == ErrTokenExpired && e.Expired()
}

// Expired reports whether the upstream rejected the credentials.
func (e *APIError) Expired() bool {
	return e.StatusCode == 401 || strings.Contains(e.Message, "authentication")
}

// UserMessage returns the text suitable for an API error response.
func UserMessage(err error) string {
	if errors.Is(err, ErrTokenExpired) {
		return ExpiredTokenMessage
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// ValidateToken checks the shape of a bearer token.
func ValidateToken(token string) error {
	if len(token) < MinTokenLength {
		return ErrInvalidToken
	}
	return nil
}
