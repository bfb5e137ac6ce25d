// Package ledger owns the authoritative collection of transactions.
//
// A Ledger is not safe for concurrent use; the owner serializes access.
package ledger

import (
	"fmt"
	"slices"
	"sort"

	"fintrack/internal/core"
)

// Ledger holds transactions in insertion order. Display order is always a
// derived sort, never the storage order.
type Ledger struct {
	items      []core.Transaction
	nextID     int64
	categories core.CategorySet
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithCategories restricts categories to the given set.
func WithCategories(names []string) Option {
	return func(l *Ledger) {
		l.categories = core.NewCategorySet(names)
	}
}

// New returns an empty ledger whose first id is 1.
func New(opts ...Option) *Ledger {
	l := &Ledger{nextID: 1}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Restore rebuilds a ledger from persisted transactions. Records missing a
// required field are dropped and ids that are duplicated or not positive get
// a fresh id; each such repair is described in the returned warnings. The
// category set and the description limit apply to new input only, so older
// records that break them are kept as stored. The id counter resumes after
// the highest id held.
func Restore(txs []core.Transaction, opts ...Option) (*Ledger, []string) {
	l := New(opts...)
	var warnings []string

	seen := make(map[int64]struct{}, len(txs))
	var needID []int
	for _, tx := range txs {
		in := tx.Input().Normalize()
		if err := in.ValidateRecord(); err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped transaction %d: %v", tx.ID, err))
			continue
		}
		stored := build(tx.ID, in)
		if _, dup := seen[tx.ID]; dup || tx.ID <= 0 {
			needID = append(needID, len(l.items))
		} else {
			seen[tx.ID] = struct{}{}
			if tx.ID >= l.nextID {
				l.nextID = tx.ID + 1
			}
		}
		l.items = append(l.items, stored)
	}

	for _, idx := range needID {
		old := l.items[idx].ID
		l.items[idx].ID = l.allocateID()
		warnings = append(warnings, fmt.Sprintf("reassigned transaction id %d to %d", old, l.items[idx].ID))
	}

	return l, warnings
}

// Add validates in and appends it under a fresh id. Nothing changes on
// error.
func (l *Ledger) Add(in core.TransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := l.validate(in); err != nil {
		return core.Transaction{}, err
	}
	tx := build(l.allocateID(), in)
	l.items = append(l.items, tx)
	return tx, nil
}

// Update replaces the fields of the transaction with the given id in
// place, keeping its id and position.
func (l *Ledger) Update(id int64, in core.TransactionInput) (core.Transaction, error) {
	idx := l.index(id)
	if idx < 0 {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}
	in = in.Normalize()
	if err := l.validate(in); err != nil {
		return core.Transaction{}, err
	}
	l.items[idx] = build(id, in)
	return l.items[idx], nil
}

// Remove drops the transaction with the given id. Removing an id the
// ledger does not hold returns a NotFoundError.
func (l *Ledger) Remove(id int64) (core.Transaction, error) {
	idx := l.index(id)
	if idx < 0 {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}
	removed := l.items[idx]
	l.items = slices.Delete(l.items, idx, idx+1)
	return removed, nil
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id int64) (core.Transaction, bool) {
	idx := l.index(id)
	if idx < 0 {
		return core.Transaction{}, false
	}
	return l.items[idx], true
}

// List returns a copy of all transactions in storage order.
func (l *Ledger) List() []core.Transaction {
	return slices.Clone(l.items)
}

// Len returns the number of transactions held.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Categories returns the distinct categories in use, sorted.
func (l *Ledger) Categories() []string {
	seen := make(map[string]struct{})
	for _, tx := range l.items {
		seen[tx.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (l *Ledger) validate(in core.TransactionInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if l.categories != nil && !l.categories.Allows(in.Category) {
		return &core.ValidationError{Field: "category", Err: core.ErrUnknownCategory}
	}
	return nil
}

func (l *Ledger) allocateID() int64 {
	id := l.nextID
	l.nextID++
	return id
}

func (l *Ledger) index(id int64) int {
	return slices.IndexFunc(l.items, func(tx core.Transaction) bool { return tx.ID == id })
}

func build(id int64, in core.TransactionInput) core.Transaction {
	return core.Transaction{
		ID:          id,
		Kind:        in.Kind,
		Date:        in.Date,
		Description: in.Description,
		Category:    in.Category,
		Amount:      in.Amount.Abs(),
	}
}
