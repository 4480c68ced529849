package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when the key holds no live value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable string key/value bag. It backs the per-session values the
// cart keeps between requests (the persisted cart id and its backup copy).
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by stores with a remote backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

type scoped struct {
	inner  Store
	prefix string
}

// Scoped namespaces every key of inner under the supplied session id.
func Scoped(inner Store, sessionID string) Store {
	return &scoped{inner: inner, prefix: strings.TrimSpace(sessionID) + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}
