// Package store persists the tracker state under three independent keys of
// a key-value backend.
package store

import "context"

// Persisted keys. Each is read and written independently.
const (
	KeyTransactions = "transactions"
	KeyBudgets      = "budgets"
	KeyCurrency     = "currency"
)

// Keys lists every persisted key.
var Keys = []string{KeyTransactions, KeyBudgets, KeyCurrency}

// KeyValueStore is the only thing the tracker needs from durable storage.
// Load reports found=false for a key that was never saved.
type KeyValueStore interface {
	Load(ctx context.Context, key string) (value []byte, found bool, err error)
	Save(ctx context.Context, key string, value []byte) error
}
