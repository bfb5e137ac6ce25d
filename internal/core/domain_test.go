package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func validInput() TransactionInput {
	return TransactionInput{
		Kind:        Expense,
		Date:        "2025-08-28",
		Description: "Lunch",
		Category:    "Food",
		Amount:      decimal.RequireFromString("15.00"),
	}
}

func TestTransactionInputValidate(t *testing.T) {
	if err := validInput().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TransactionInput)
		want   error
	}{
		{"bad kind", func(in *TransactionInput) { in.Kind = "transfer" }, ErrInvalidKind},
		{"empty date", func(in *TransactionInput) { in.Date = "" }, ErrInvalidDate},
		{"not a date", func(in *TransactionInput) { in.Date = "2025-02-30" }, ErrInvalidDate},
		{"unpadded date", func(in *TransactionInput) { in.Date = "2025-8-1" }, ErrInvalidDate},
		{"blank description", func(in *TransactionInput) { in.Description = "   " }, ErrEmptyDescription},
		{"long description", func(in *TransactionInput) { in.Description = string(make([]byte, 201)) }, ErrDescriptionTooLong},
		{"long multibyte description", func(in *TransactionInput) { in.Description = strings.Repeat("é", 201) }, ErrDescriptionTooLong},
		{"empty category", func(in *TransactionInput) { in.Category = "" }, ErrEmptyCategory},
		{"zero amount", func(in *TransactionInput) { in.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(in *TransactionInput) { in.Amount = decimal.NewFromInt(-5) }, ErrInvalidAmount},
	}
	for _, tc := range cases {
		in := validInput()
		tc.mutate(&in)
		err := in.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !IsValidation(err) {
			t.Fatalf("%s: expected a ValidationError, got %T", tc.name, err)
		}
	}
}

func TestDescriptionLimitCountsCharacters(t *testing.T) {
	for _, desc := range []string{strings.Repeat("é", 150), strings.Repeat("食", MaxDescriptionLength), strings.Repeat("💸", 120)} {
		in := validInput()
		in.Description = desc
		if err := in.Validate(); err != nil {
			t.Fatalf("%d characters: expected ok, got %v", len([]rune(desc)), err)
		}
	}
}

func TestValidateRecordIgnoresDescriptionLimit(t *testing.T) {
	in := validInput()
	in.Description = strings.Repeat("a", MaxDescriptionLength+50)
	if err := in.ValidateRecord(); err != nil {
		t.Fatalf("expected a stored record to pass, got %v", err)
	}
	if err := in.Validate(); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected %v, got %v", ErrDescriptionTooLong, err)
	}

	in.Description = ""
	if err := in.ValidateRecord(); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected %v, got %v", ErrEmptyDescription, err)
	}
}

func TestTransactionInputNormalize(t *testing.T) {
	in := TransactionInput{
		Kind:        " Income ",
		Date:        " 2025-08-27 ",
		Description: "  Salary ",
		Category:    " Salary",
		Amount:      decimal.NewFromInt(-2000),
	}
	got := in.Normalize()
	if got.Kind != Income || got.Date != "2025-08-27" || got.Description != "Salary" || got.Category != "Salary" {
		t.Fatalf("unexpected normalized input: %+v", got)
	}
	if !got.Amount.Equal(decimal.NewFromInt(-2000)) {
		t.Fatalf("expected amount untouched, got %s", got.Amount)
	}
	if err := got.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected negative amount to be rejected, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"income": Income, "EXPENSE": Expense, " expense ": Expense} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseKind("refund"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestTransactionSignedAndMonth(t *testing.T) {
	tx := Transaction{Kind: Expense, Date: "2025-09-01", Amount: decimal.NewFromInt(10)}
	if !tx.Signed().Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("expense should be negative, got %s", tx.Signed())
	}
	if tx.Month() != "2025-09" {
		t.Fatalf("unexpected month %q", tx.Month())
	}
	tx.Kind = Income
	if !tx.Signed().Equal(decimal.NewFromInt(10)) {
		t.Fatalf("income should be positive, got %s", tx.Signed())
	}
}

func TestErrorKinds(t *testing.T) {
	nf := error(&NotFoundError{ID: 7})
	if !IsNotFound(nf) || nf.Error() != "transaction 7 not found" {
		t.Fatalf("unexpected not found error: %v", nf)
	}

	cause := errors.New("quota exceeded")
	pe := error(&PersistenceError{Key: "transactions", Op: "save", Err: cause})
	if !IsPersistence(pe) || !errors.Is(pe, cause) {
		t.Fatalf("persistence error should unwrap to its cause: %v", pe)
	}
	if IsValidation(pe) || IsNotFound(pe) {
		t.Fatalf("persistence error misclassified")
	}
}

func TestCategorySet(t *testing.T) {
	var open CategorySet
	if !open.Allows("Anything") || open.Allows("") {
		t.Fatalf("nil set should allow any non-empty label")
	}
	set := NewCategorySet(DefaultCategories)
	if !set.Allows("Food") || set.Allows("Crypto") {
		t.Fatalf("unexpected membership for default set")
	}
}
