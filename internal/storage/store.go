// Package storage provides the key-value storage behind browser sessions.
//
// Each browser session gets its own Storage scope, the server-side
// equivalent of the browser's localStorage. Values are opaque strings.
package storage

import (
	"context"
)

// Storage is a string key-value store scoped to one browser session.
type Storage interface {
	// GetItem returns the value for key. ok is false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error

	// Clear removes every key in the scope.
	Clear(ctx context.Context) error
}

// Provider hands out one Storage per browser session.
// This abstraction allows swapping backends (memory, SQLite) without
// changing the session or web layers.
type Provider interface {
	// Scope returns the Storage for the given session ID.
	Scope(sessionID string) Storage

	// Drop removes everything stored for the session ID.
	Drop(ctx context.Context, sessionID string) error

	// Close releases any resources held by the provider.
	Close() error
}
