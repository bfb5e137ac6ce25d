package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKind        = errors.New("type must be income or expense")
	ErrInvalidDate        = errors.New("date must be a valid YYYY-MM-DD date")
	ErrInvalidMonth       = errors.New("month must be YYYY-MM")
	ErrEmptyDescription   = errors.New("description cannot be empty")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("category cannot be empty")
	ErrUnknownCategory    = errors.New("category is not one of the allowed categories")
	ErrInvalidAmount      = errors.New("amount must be a number greater than zero")
	ErrInvalidLimit       = errors.New("budget limit must be a number of at least zero")
	ErrUnknownCurrency    = errors.New("unknown currency code")
)

// ValidationError reports bad user input. The state is never changed when
// one is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports an operation on a transaction id the ledger does
// not hold, typically from a stale view.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %d not found", e.ID)
}

// PersistenceError reports a failed durable read or write. In-memory state
// stays authoritative for the session.
type PersistenceError struct {
	Key string
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
