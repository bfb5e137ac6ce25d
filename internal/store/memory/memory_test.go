package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, found, err := s.Load(ctx, "budgets"); err != nil || found {
		t.Fatalf("expected absent key, found=%v err=%v", found, err)
	}

	if err := s.Save(ctx, "budgets", []byte(`{"Food":100}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := s.Load(ctx, "budgets")
	if err != nil || !found || string(got) != `{"Food":100}` {
		t.Fatalf("unexpected load: %q found=%v err=%v", got, found, err)
	}

	// Returned bytes are a copy
	got[0] = 'X'
	again, _, _ := s.Load(ctx, "budgets")
	if string(again) != `{"Food":100}` {
		t.Fatalf("store was mutated through returned slice: %q", again)
	}
}

func TestMemoryStoreFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := New()

	s.FailSaves(ErrQuotaExceeded)
	if err := s.Save(ctx, "currency", []byte("EUR")); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if _, ok := s.Raw("currency"); ok {
		t.Fatalf("failed save must not store anything")
	}
	s.FailSaves(nil)
	if err := s.Save(ctx, "currency", []byte("EUR")); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if s.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", s.Saves())
	}

	boom := errors.New("disk gone")
	s.FailLoads(boom)
	if _, _, err := s.Load(ctx, "currency"); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestNewFromDirSeeds(t *testing.T) {
	dir := t.TempDir()
	s := NewFromDir(dir)
	if _, ok := s.Raw("transactions"); ok {
		t.Fatalf("expected empty store when files are missing")
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("transactions.json", `[{"id":1,"type":"expense","date":"2025-08-28","description":"Lunch","category":"Food","amount":15}]`)
	mustWrite("currency.json", "GBP")
	mustWrite("budgets.json", "")
	mustWrite("notes.json", "ignored")

	s = NewFromDir(dir)
	if _, ok := s.Raw("transactions"); !ok {
		t.Fatalf("expected transactions to be seeded")
	}
	if v, _ := s.Raw("currency"); string(v) != "GBP" {
		t.Fatalf("unexpected currency seed %q", v)
	}
	if _, ok := s.Raw("budgets"); ok {
		t.Fatalf("empty file should leave key absent")
	}
	if _, ok := s.Raw("notes"); ok {
		t.Fatalf("unknown files should be ignored")
	}
}
