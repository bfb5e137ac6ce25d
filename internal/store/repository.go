package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Snapshot is the persisted state as read at startup. Absent keys leave
// their field empty. Warnings describe keys that held unreadable data and
// were treated as absent.
type Snapshot struct {
	Transactions []core.Transaction
	Budgets      map[string]decimal.Decimal
	Currency     string
	Warnings     []string
}

// Repository maps tracker state onto the three persisted keys.
type Repository struct {
	kv     KeyValueStore
	logger *log.Logger
}

func NewRepository(kv KeyValueStore, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Nop()
	}
	return &Repository{kv: kv, logger: logger.WithComponent(log.ComponentStorage)}
}

// Load reads all keys concurrently. Backend errors fail the load; corrupt
// values only produce warnings.
func (r *Repository) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var txWarn, bWarn, cWarn string

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, found, err := r.load(ctx, KeyTransactions)
		if err != nil || !found {
			return err
		}
		txs, err := DecodeTransactions(raw)
		if err != nil {
			txWarn = err.Error()
			return nil
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		raw, found, err := r.load(ctx, KeyBudgets)
		if err != nil || !found {
			return err
		}
		limits, err := DecodeBudgets(raw)
		if err != nil {
			bWarn = err.Error()
			return nil
		}
		snap.Budgets = limits
		return nil
	})
	g.Go(func() error {
		raw, found, err := r.load(ctx, KeyCurrency)
		if err != nil || !found {
			return err
		}
		code, err := DecodeCurrency(raw)
		if err != nil {
			cWarn = err.Error()
			return nil
		}
		snap.Currency = code
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	for _, w := range []string{txWarn, bWarn, cWarn} {
		if w != "" {
			snap.Warnings = append(snap.Warnings, w)
		}
	}
	for _, w := range snap.Warnings {
		r.logger.Warn("Ignoring unreadable persisted value", log.FieldError, w)
	}
	r.logger.Debug("Loaded persisted state",
		log.FieldCount, len(snap.Transactions),
		"budgets", len(snap.Budgets),
		log.FieldCurrency, snap.Currency)
	return snap, nil
}

// SaveTransactions overwrites the transactions key.
func (r *Repository) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	b, err := EncodeTransactions(txs)
	if err != nil {
		return &core.PersistenceError{Key: KeyTransactions, Op: log.OpSave, Err: err}
	}
	return r.save(ctx, KeyTransactions, b)
}

// SaveBudgets overwrites the budgets key.
func (r *Repository) SaveBudgets(ctx context.Context, limits map[string]decimal.Decimal) error {
	b, err := EncodeBudgets(limits)
	if err != nil {
		return &core.PersistenceError{Key: KeyBudgets, Op: log.OpSave, Err: err}
	}
	return r.save(ctx, KeyBudgets, b)
}

// SaveCurrency overwrites the currency key.
func (r *Repository) SaveCurrency(ctx context.Context, code string) error {
	return r.save(ctx, KeyCurrency, EncodeCurrency(code))
}

func (r *Repository) load(ctx context.Context, key string) ([]byte, bool, error) {
	raw, found, err := r.kv.Load(ctx, key)
	if err != nil {
		return nil, false, &core.PersistenceError{Key: key, Op: log.OpLoad, Err: err}
	}
	return raw, found, nil
}

func (r *Repository) save(ctx context.Context, key string, value []byte) error {
	if err := r.kv.Save(ctx, key, value); err != nil {
		return &core.PersistenceError{Key: key, Op: log.OpSave, Err: fmt.Errorf("write %d bytes: %w", len(value), err)}
	}
	return nil
}
