package cli

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("FINTRACK_TEST_VALUE", "")
	os.Unsetenv("FINTRACK_TEST_VALUE")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FINTRACK_TEST_VALUE=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	LoadEnvFile(path)
	if got := os.Getenv("FINTRACK_TEST_VALUE"); got != "from-dotenv" {
		t.Fatalf("FINTRACK_TEST_VALUE = %q", got)
	}

	// missing files are ignored
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9091")
	t.Setenv("EVENTS_BACKEND", "none")
	t.Setenv("DEFAULT_CURRENCY", "EUR")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9091" || cfg.DataBackend != "memory" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	t.Setenv("DATA_BACKEND", "floppy")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", "json")
	if logger.Component() != log.ComponentApp {
		t.Fatalf("component = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), -4) {
		t.Fatal("debug level should be enabled")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataBackend:     "sqlite",
		SQLiteDBPath:    filepath.Join(t.TempDir(), "fintrack.db"),
		StoreCacheSize:  4,
		StoreCacheTTL:   time.Minute,
		EventsBackend:   "none",
		DefaultCurrency: "EUR",
	}
}

func TestOpenApp(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	app, err := OpenApp(ctx, cfg, nil, &events.Recorder{})
	if err != nil {
		t.Fatalf("OpenApp: %v", err)
	}
	if app.Tracker.Currency() != "EUR" {
		t.Fatalf("Currency = %s", app.Tracker.Currency())
	}

	in := core.TransactionInput{Kind: core.Expense, Date: "2025-03-01", Description: "Train", Category: "Transport"}
	in.Amount, _ = core.ParseAmount("12.40")
	if _, err := app.Tracker.AddTransaction(ctx, in); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenApp(ctx, cfg, nil, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if txs := reopened.Tracker.Transactions(); len(txs) != 1 || txs[0].Description != "Train" {
		t.Fatalf("reloaded transactions = %+v", txs)
	}
}

func TestOpenAppInvalidBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = "floppy"
	if _, err := OpenApp(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestOpenAppCorruptStateIsRepaired(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, store.KeyTransactions+".json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cfg := testConfig(t)
	cfg.DataBackend = "memory"
	cfg.DataDirectory = dir

	app, err := OpenApp(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("OpenApp: %v", err)
	}
	defer app.Close()
	if len(app.Tracker.Warnings()) == 0 {
		t.Fatal("expected a load warning for the corrupt key")
	}
	if len(app.Tracker.Transactions()) != 0 {
		t.Fatal("corrupt key must load as empty")
	}
}

func TestGracefulShutdown(t *testing.T) {
	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(log.Nop(), time.Second, func(ctx context.Context) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("cleanup context should carry the shutdown timeout")
		}
		close(cleaned)
	})

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send SIGTERM: %v", err)
	}

	finished := make(chan struct{})
	go func() {
		WaitForShutdown(ctx, done)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup was not called")
	}
}
