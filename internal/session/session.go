// Package session keeps Google OAuth sessions in Redis and hands request
// handlers a fresh access token.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickwarner/lpdash/internal/db"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is a signed-in user and their Google credentials.
type Session struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	Expiry       time.Time `json:"expiry"`
	CreatedAt    time.Time `json:"createdAt"`
	// RefreshError is set when the last refresh attempt failed.
	RefreshError string `json:"refreshError,omitempty"`
}

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON under "session:<id>".
type RedisStore struct {
	rs *db.RedisStore
}

// NewRedisStore returns a Store backed by rs.
func NewRedisStore(rs *db.RedisStore) *RedisStore {
	return &RedisStore{rs: rs}
}

func key(id string) string { return "session:" + id }

func (s *RedisStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess.ID == "" {
		return fmt.Errorf("save session: missing id")
	}
	if err := s.rs.PutJSON(ctx, key(sess.ID), sess, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var sess Session
	if err := s.rs.GetJSON(ctx, key(id), &sess); err != nil {
		if errors.Is(err, db.ErrMissing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rs.Delete(ctx, key(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
