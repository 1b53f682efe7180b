// Package persist stores the ledger collections in a key-value backend.
// Each collection is one JSON array under a fixed key.
package persist

import (
	"context"
	"errors"
)

// Keys under which the ledger collections are stored.
const (
	KeyTransactions = "transactions"
	KeyCategories   = "categories"
)

// ErrNotFound is returned by KV.Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// KV is a minimal durable key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
