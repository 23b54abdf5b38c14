// Package session models the authenticated user's state for one browser.
//
// A Session reads and writes through an injected storage.Storage, so the
// same code runs against SQLite in production and an in-memory scope in
// tests. Values are read on every call; nothing is cached, matching the
// browser localStorage semantics the keys come from.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Luca-B431/bill-app/internal/models"
	"github.com/Luca-B431/bill-app/internal/storage"
)

// Storage keys.
const (
	KeyJWT              = "jwt"
	KeyUser             = "user"
	KeyPreviousLocation = "PREVIOUS_LOCATION"
)

// User is the record kept under KeyUser.
type User struct {
	Type   models.Role `json:"type"`
	Email  string      `json:"email"`
	Status string      `json:"status,omitempty"`
}

// IsAdmin reports whether the user is an administrator.
func (u *User) IsAdmin() bool {
	return u != nil && u.Type == models.RoleAdmin
}

// Session is the session state of one browser.
type Session struct {
	store storage.Storage
}

// New creates a Session over store.
func New(store storage.Storage) *Session {
	return &Session{store: store}
}

// Token returns the bearer token, or "" when not signed in.
// It satisfies store.TokenSource.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, _, err := s.store.GetItem(ctx, KeyJWT)
	if err != nil {
		return "", fmt.Errorf("session: reading token: %w", err)
	}
	return token, nil
}

// SetToken stores the bearer token.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if err := s.store.SetItem(ctx, KeyJWT, token); err != nil {
		return fmt.Errorf("session: storing token: %w", err)
	}
	return nil
}

// User returns the signed-in user, or nil when there is none.
func (s *Session) User(ctx context.Context) (*User, error) {
	raw, ok, err := s.store.GetItem(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("session: reading user: %w", err)
	}
	if !ok || raw == "" || raw == "null" {
		return nil, nil
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("session: decoding user: %w", err)
	}
	return &user, nil
}

// SetUser stores the signed-in user.
func (s *Session) SetUser(ctx context.Context, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encoding user: %w", err)
	}
	if err := s.store.SetItem(ctx, KeyUser, string(data)); err != nil {
		return fmt.Errorf("session: storing user: %w", err)
	}
	return nil
}

// PreviousLocation returns the last protected route visited, or "".
func (s *Session) PreviousLocation(ctx context.Context) (string, error) {
	location, _, err := s.store.GetItem(ctx, KeyPreviousLocation)
	if err != nil {
		return "", fmt.Errorf("session: reading previous location: %w", err)
	}
	return location, nil
}

// SetPreviousLocation records the route back-navigation falls back to.
func (s *Session) SetPreviousLocation(ctx context.Context, pathname string) error {
	if err := s.store.SetItem(ctx, KeyPreviousLocation, pathname); err != nil {
		return fmt.Errorf("session: storing previous location: %w", err)
	}
	return nil
}

// RemoveUser drops the user record, leaving the browser signed out.
func (s *Session) RemoveUser(ctx context.Context) error {
	if err := s.store.RemoveItem(ctx, KeyUser); err != nil {
		return fmt.Errorf("session: removing user: %w", err)
	}
	return nil
}

// Clear signs the user out by dropping every key.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("session: clearing: %w", err)
	}
	return nil
}
