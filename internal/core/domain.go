package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the persisted and display layout of transaction dates.
// Chronological sort compares the strings directly, which only works
// because the layout is zero-padded ISO.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds the description of a new or edited
// transaction, in characters.
const MaxDescriptionLength = 200

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind tells whether a transaction adds to or subtracts from the balance.
	Kind string

	// Transaction is a single stored ledger entry. Amount is always a
	// positive magnitude; the sign is implied by Kind.
	Transaction struct {
		ID          int64
		Kind        Kind
		Date        string
		Description string
		Category    string
		Amount      decimal.Decimal
	}

	// TransactionInput carries the user-editable fields of a transaction,
	// used for both creation and replacement.
	TransactionInput struct {
		Kind        Kind
		Date        string
		Description string
		Category    string
		Amount      decimal.Decimal
	}
)

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", &ValidationError{Field: "type", Err: ErrInvalidKind}
	}
	return k, nil
}

// Normalize trims text fields. The amount is left as given so that a
// negative amount still fails Validate.
func (in TransactionInput) Normalize() TransactionInput {
	in.Kind = Kind(strings.ToLower(strings.TrimSpace(string(in.Kind))))
	in.Date = strings.TrimSpace(in.Date)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	return in
}

// Validate checks the input as given; callers normally Normalize first.
func (in TransactionInput) Validate() error {
	if err := in.ValidateRecord(); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	return nil
}

// ValidateRecord checks only the fields every stored transaction needs.
// Records persisted before the description limit existed still pass.
func (in TransactionInput) ValidateRecord() error {
	if !in.Kind.IsValid() {
		return &ValidationError{Field: "type", Err: ErrInvalidKind}
	}
	if err := ValidateDate(in.Date); err != nil {
		return err
	}
	if len(strings.TrimSpace(in.Description)) == 0 {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if strings.TrimSpace(in.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if !in.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	return nil
}

// Input returns the editable fields of t.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Kind:        t.Kind,
		Date:        t.Date,
		Description: t.Description,
		Category:    t.Category,
		Amount:      t.Amount,
	}
}

// Signed returns the amount with the sign implied by the kind.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Month returns the YYYY-MM prefix of the transaction date.
func (t Transaction) Month() string {
	if len(t.Date) < 7 {
		return ""
	}
	return t.Date[:7]
}

// ValidateDate requires a real calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return nil
}

// ValidateMonth requires a YYYY-MM month.
func ValidateMonth(s string) error {
	if _, err := time.Parse("2006-01", s); err != nil {
		return &ValidationError{Field: "month", Err: ErrInvalidMonth}
	}
	return nil
}
