// Package kv provides the durable mirror backends for the session store.
//
// The contract is deliberately small: a synchronous, origin-scoped key-value
// store with four well-known keys written in lockstep with the in-memory
// session. Set must be durable by the time it returns so that a value
// persisted before a network call is guaranteed to survive a crash during
// that call.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

// Store is the persistence contract for the durable mirror.
// Implementations must be safe for concurrent use.
//
// Get returns ErrNotFound for absent keys. Delete of an absent key is a no-op.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
