package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeValues keeps a sheet grid in memory and understands the ranges the
// store issues.
type fakeValues struct {
	rows    [][]any
	updates []string
	failGet error
}

func (f *fakeValues) get(_ context.Context, rng string) ([][]any, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	out := make([][]any, len(f.rows))
	for i, r := range f.rows {
		if strings.HasSuffix(rng, "!A1:A") && len(r) > 0 {
			out[i] = r[:1]
			continue
		}
		out[i] = append([]any(nil), r...)
	}
	return out, nil
}

func (f *fakeValues) update(_ context.Context, rng string, rows [][]any) error {
	f.updates = append(f.updates, rng)
	var row int
	if _, err := fmt.Sscanf(rng[strings.Index(rng, "!A")+2:], "%d", &row); err != nil {
		return err
	}
	// Trailing empty cells come back trimmed from the real API
	r := rows[0]
	for len(r) > 0 && r[len(r)-1] == "" {
		r = r[:len(r)-1]
	}
	f.rows[row-1] = r
	return nil
}

func (f *fakeValues) append(_ context.Context, _ string, rows [][]any) error {
	f.rows = append(f.rows, rows...)
	return nil
}

func TestSheetsStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	fake := &fakeValues{rows: [][]any{{"header-ignored"}}}
	s := &Store{api: fake, sheet: "fintrack"}

	if _, found, err := s.Load(ctx, "currency"); err != nil || found {
		t.Fatalf("expected absent key, found=%v err=%v", found, err)
	}

	if err := s.Save(ctx, "currency", []byte("EUR")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "budgets", []byte(`{"Food":100}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "currency", []byte("GBP")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	if len(fake.rows) != 3 {
		t.Fatalf("expected one row per key, got %d rows", len(fake.rows))
	}
	if len(fake.updates) != 1 || fake.updates[0] != "fintrack!A2:Z2" {
		t.Fatalf("unexpected updates: %v", fake.updates)
	}

	got, found, err := s.Load(ctx, "currency")
	if err != nil || !found || string(got) != "GBP" {
		t.Fatalf("unexpected load: %q found=%v err=%v", got, found, err)
	}
}

func TestSheetsStoreChunksLargeValues(t *testing.T) {
	ctx := context.Background()
	fake := &fakeValues{}
	s := &Store{api: fake, sheet: "fintrack"}

	big := strings.Repeat("é", chunkSize) // two bytes per rune
	if err := s.Save(ctx, "transactions", []byte(big)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if cells := len(fake.rows[0]); cells != 3 {
		t.Fatalf("expected key plus 2 chunks, got %d cells", cells)
	}
	got, _, err := s.Load(ctx, "transactions")
	if err != nil || string(got) != big {
		t.Fatalf("chunked value did not round trip (err=%v, len=%d)", err, len(got))
	}

	// A shorter overwrite clears the old trailing chunk
	if err := s.Save(ctx, "transactions", []byte("[]")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = s.Load(ctx, "transactions")
	if string(got) != "[]" {
		t.Fatalf("expected [], got %d bytes", len(got))
	}
}

func TestSheetsStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := &Store{api: &fakeValues{}, sheet: "fintrack"}

	tooBig := strings.Repeat("x", chunkSize*maxChunks+1)
	if err := s.Save(ctx, "transactions", []byte(tooBig)); !errors.Is(err, ErrValueTooLarge) {
		t.Fatalf("expected ErrValueTooLarge, got %v", err)
	}

	boom := errors.New("403 forbidden")
	s.api = &fakeValues{failGet: boom}
	if _, _, err := s.Load(ctx, "currency"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}
