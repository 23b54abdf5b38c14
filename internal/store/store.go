// Package store is the data-access facade over the Billed REST API.
//
// A Store is built per browser session: it pairs the shared api.Client with
// that session's TokenSource, so the bearer token is read from the session
// on every call.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Luca-B431/bill-app/internal/api"
	"github.com/Luca-B431/bill-app/internal/models"
)

// Resource keys.
const (
	KeyBills = "bills"
	KeyUsers = "users"
)

// TokenSource yields the current bearer token; "" means anonymous.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the payload of POST /auth/login.
type LoginResponse struct {
	JWT string `json:"jwt"`
}

// UploadResponse is what POST /bills answers for a receipt upload.
type UploadResponse struct {
	FileURL string `json:"fileUrl"`
	Key     string `json:"key"`
}

// Store exposes the backend resources.
type Store struct {
	client *api.Client
	tokens TokenSource
}

// New creates a Store.
func New(client *api.Client, tokens TokenSource) *Store {
	return &Store{client: client, tokens: tokens}
}

// Bills returns the facade of the "bills" resource.
func (s *Store) Bills() *Entity[models.Bill] {
	return NewEntity[models.Bill](KeyBills, s.client, s.tokens)
}

// Users returns the facade of the "users" resource, used for signup.
func (s *Store) Users() *Entity[models.User] {
	return NewEntity[models.User](KeyUsers, s.client, s.tokens)
}

// Bill fetches one bill by ID.
func (s *Store) Bill(ctx context.Context, id string) (models.Bill, error) {
	return s.Bills().Select(ctx, id)
}

// User fetches one user by ID.
func (s *Store) User(ctx context.Context, id string) (models.User, error) {
	return s.Users().Select(ctx, id)
}

// Login exchanges credentials for a token. The request never carries the
// stored token.
func (s *Store) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	body, err := JSONBody(creds)
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Post(ctx, api.Request{
		URL:    "/auth/login",
		Body:   body.Data,
		Header: Headers("", HeaderOptions{NoAuthorization: true}),
	})
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("store: decoding login response: %w", err)
	}
	return &resp, nil
}
