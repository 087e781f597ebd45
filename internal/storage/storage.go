// Package storage provides the durable client-side key-value capability
// behind the session mirror, with memory, file and redis backends.
package storage

import "context"

// Store is the minimal key-value capability the core depends on. All
// implementations are best-effort from the caller's point of view: the
// mirror catches and logs failures rather than propagating them.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
