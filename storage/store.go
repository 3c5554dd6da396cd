// Package storage is the persisted key-value store each browser identity
// reads and writes. Values are opaque bytes; callers store JSON.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Persisted keys shared by the components.
const (
	KeyCurrentUser = "currentUser"
	KeyUsers       = "users"
	KeyChatHistory = "communityChatHistory"
)

// Backend stores values per namespace. A namespace is one browser identity.
type Backend interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
}

// Store is a Backend bound to a single namespace.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type scoped struct {
	backend   Backend
	namespace string
}

// Scope binds backend to namespace.
func Scope(backend Backend, namespace string) Store {
	return &scoped{backend: backend, namespace: namespace}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.backend.Get(ctx, s.namespace, key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.backend.Set(ctx, s.namespace, key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.namespace, key)
}
