// Package storage provides the durable key-value slots that back the
// favourites list. Every backend stores opaque byte values under string keys.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key holds no value.
var ErrNotFound = errors.New("storage: not found")

// Store is a durable key-value store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists the stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases any resources held by the store.
	Close() error
}

// Watcher is implemented by stores that can report external changes to a key.
type Watcher interface {
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
}
