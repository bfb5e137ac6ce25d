// Package events publishes ledger changes to a message broker so that other
// processes (budget alerts, exports) can react to them.
package events

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type names what changed.
type Type string

const (
	TransactionCreated   Type = "transaction.created"
	TransactionUpdated   Type = "transaction.updated"
	TransactionDeleted   Type = "transaction.deleted"
	TransactionsImported Type = "transaction.imported"
	BudgetsUpdated       Type = "budgets.updated"
	CurrencyUpdated      Type = "currency.updated"
)

// Event is a lightweight notification. Consumers that need the full record
// read it back through the API.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Category      string    `json:"category,omitempty"`
	Month         string    `json:"month,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
	}
}

// ForTransaction returns a copy of e tied to a transaction.
func (e Event) ForTransaction(id int64, category, month string) Event {
	e.TransactionID = id
	e.Category = category
	e.Month = month
	return e
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an event from JSON bytes
func FromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

// Fail makes every later Publish return err.
func (r *Recorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns what has been published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *Recorder) Close() error { return nil }
