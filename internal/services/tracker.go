package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/events"
	"fintrack/internal/export"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/store"
)

// Repository is the persistence the tracker needs. *store.Repository
// implements it.
type Repository interface {
	Load(ctx context.Context) (store.Snapshot, error)
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
	SaveBudgets(ctx context.Context, limits map[string]decimal.Decimal) error
	SaveCurrency(ctx context.Context, code string) error
}

// Options tunes a Tracker.
type Options struct {
	// DefaultCurrency is used when nothing valid is persisted.
	DefaultCurrency string
	// StrictCategories restricts transactions to Categories.
	StrictCategories bool
	// Categories defaults to core.DefaultCategories.
	Categories []string
}

// Outcome is the result of a successful mutation. Warning is set when the
// change is applied in memory but could not be persisted.
type Outcome struct {
	Transaction core.Transaction
	Warning     error
}

// ImportResult reports a CSV import.
type ImportResult struct {
	Added     []core.Transaction
	RowErrors []string
	Warning   error
}

// Summary is the running totals of the ledger, raw and formatted with the
// current currency.
type Summary struct {
	Totals   core.Totals
	Income   string
	Expense  string
	Balance  string
	Currency string
	Count    int
}

// Tracker owns the ledger, the budgets and the currency preference. Every
// mutation is persisted before it returns and then announced on the event
// publisher; reads recompute their views from current state.
type Tracker struct {
	mu         sync.Mutex
	ledger     *ledger.Ledger
	budgets    *budget.Registry
	currency   string
	formatter  *currency.Formatter
	categories []string

	repo     Repository
	pub      events.Publisher
	logger   *log.Logger
	warnings []string
}

// NewTracker restores state from repo. Unreadable or invalid persisted data
// is skipped and reported by Warnings; a failing backend is an error.
func NewTracker(ctx context.Context, repo Repository, pub events.Publisher, logger *log.Logger, opts Options) (*Tracker, error) {
	if logger == nil {
		logger = log.Nop()
	}
	if pub == nil {
		pub = events.Noop{}
	}
	if len(opts.Categories) == 0 {
		opts.Categories = core.DefaultCategories
	}

	snap, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted state: %w", err)
	}

	var ledgerOpts []ledger.Option
	if opts.StrictCategories {
		ledgerOpts = append(ledgerOpts, ledger.WithCategories(opts.Categories))
	}
	l, txWarnings := ledger.Restore(snap.Transactions, ledgerOpts...)
	b, budgetWarnings := budget.Restore(snap.Budgets)

	formatter := currency.NewFormatter(opts.DefaultCurrency)
	code := formatter.Fallback()
	var currencyWarning []string
	if snap.Currency != "" {
		if normalized, err := currency.Normalize(snap.Currency); err == nil {
			code = normalized
		} else {
			currencyWarning = append(currencyWarning, fmt.Sprintf("ignored persisted currency %q: %v", snap.Currency, err))
		}
	}

	t := &Tracker{
		ledger:     l,
		budgets:    b,
		currency:   code,
		formatter:  formatter,
		categories: opts.Categories,
		repo:       repo,
		pub:        pub,
		logger:     logger.WithComponent(log.ComponentLedger),
	}
	t.warnings = append(t.warnings, snap.Warnings...)
	t.warnings = append(t.warnings, txWarnings...)
	t.warnings = append(t.warnings, budgetWarnings...)
	t.warnings = append(t.warnings, currencyWarning...)
	for _, w := range t.warnings {
		t.logger.Warn("Repaired persisted state", log.FieldOperation, log.OpLoad, log.FieldError, w)
	}

	t.logger.Info("Tracker ready",
		log.FieldCount, l.Len(),
		"budgets", b.Len(),
		log.FieldCurrency, code,
		"strict_categories", opts.StrictCategories)
	return t, nil
}

// Warnings returns what was repaired while loading persisted state.
func (t *Tracker) Warnings() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.warnings...)
}

// AddTransaction validates and stores a new transaction.
func (t *Tracker) AddTransaction(ctx context.Context, in core.TransactionInput) (Outcome, error) {
	t.mu.Lock()
	tx, err := t.ledger.Add(in)
	if err != nil {
		t.mu.Unlock()
		return Outcome{}, err
	}
	warning := t.saveTransactions(ctx)
	t.mu.Unlock()

	t.logTransaction(ctx, log.OpCreate, tx)
	t.publish(ctx, events.New(events.TransactionCreated).ForTransaction(tx.ID, tx.Category, tx.Month()))
	return Outcome{Transaction: tx, Warning: warning}, nil
}

// UpdateTransaction replaces the fields of transaction id.
func (t *Tracker) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (Outcome, error) {
	t.mu.Lock()
	tx, err := t.ledger.Update(id, in)
	if err != nil {
		t.mu.Unlock()
		return Outcome{}, err
	}
	warning := t.saveTransactions(ctx)
	t.mu.Unlock()

	t.logTransaction(ctx, log.OpUpdate, tx)
	t.publish(ctx, events.New(events.TransactionUpdated).ForTransaction(tx.ID, tx.Category, tx.Month()))
	return Outcome{Transaction: tx, Warning: warning}, nil
}

// DeleteTransaction removes transaction id. A missing id is a NotFoundError.
func (t *Tracker) DeleteTransaction(ctx context.Context, id int64) (Outcome, error) {
	t.mu.Lock()
	tx, err := t.ledger.Remove(id)
	if err != nil {
		t.mu.Unlock()
		return Outcome{}, err
	}
	warning := t.saveTransactions(ctx)
	t.mu.Unlock()

	t.logTransaction(ctx, log.OpDelete, tx)
	t.publish(ctx, events.New(events.TransactionDeleted).ForTransaction(tx.ID, tx.Category, tx.Month()))
	return Outcome{Transaction: tx, Warning: warning}, nil
}

// SetBudgets applies a whole budget form: entries that parse to a limit of
// at least zero are set, blank or invalid ones are cleared.
func (t *Tracker) SetBudgets(ctx context.Context, entries map[string]string) Outcome {
	t.mu.Lock()
	t.budgets.BulkApply(entries)
	var warning error
	if err := t.repo.SaveBudgets(ctx, t.budgets.All()); err != nil {
		warning = t.persistenceWarning(ctx, store.KeyBudgets, err)
	}
	count := t.budgets.Len()
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "Budgets updated", log.FieldOperation, log.OpUpdate, log.FieldCount, count)
	t.publish(ctx, events.New(events.BudgetsUpdated))
	return Outcome{Warning: warning}
}

// SetCurrency changes the display currency. Unknown codes are rejected.
func (t *Tracker) SetCurrency(ctx context.Context, code string) (Outcome, error) {
	normalized, err := currency.Normalize(code)
	if err != nil {
		return Outcome{}, err
	}

	t.mu.Lock()
	t.currency = normalized
	var warning error
	if err := t.repo.SaveCurrency(ctx, normalized); err != nil {
		warning = t.persistenceWarning(ctx, store.KeyCurrency, err)
	}
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "Currency updated", log.FieldOperation, log.OpUpdate, log.FieldCurrency, normalized)
	t.publish(ctx, events.New(events.CurrencyUpdated))
	return Outcome{Warning: warning}, nil
}

// ImportCSV adds every valid row of an export. Rows that fail to parse or
// validate are reported and skipped; the valid ones are persisted together.
func (t *Tracker) ImportCSV(ctx context.Context, r io.Reader) ImportResult {
	inputs, rowErrors := export.ParseCSV(r)
	result := ImportResult{RowErrors: rowErrors}

	t.mu.Lock()
	for _, in := range inputs {
		tx, err := t.ledger.Add(in)
		if err != nil {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("%q: %v", in.Description, err))
			continue
		}
		result.Added = append(result.Added, tx)
	}
	if len(result.Added) > 0 {
		result.Warning = t.saveTransactions(ctx)
	}
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "Imported transactions",
		log.FieldOperation, log.OpImport,
		log.FieldCount, len(result.Added),
		"rejected", len(result.RowErrors))
	if len(result.Added) > 0 {
		t.publish(ctx, events.New(events.TransactionsImported))
	}
	return result
}

// Summary returns the running totals.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	totals := aggregate.Totals(t.ledger.List())
	return Summary{
		Totals:   totals,
		Income:   t.formatter.Format(totals.Income, t.currency),
		Expense:  t.formatter.Format(totals.Expense, t.currency),
		Balance:  t.formatter.Format(totals.Balance, t.currency),
		Currency: t.currency,
		Count:    t.ledger.Len(),
	}
}

// List returns the transactions matching c in display order.
func (t *Tracker) List(c query.Criteria) ([]core.Transaction, error) {
	if c.Month != "" {
		if err := core.ValidateMonth(c.Month); err != nil {
			return nil, err
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return query.Apply(t.ledger.List(), c), nil
}

// Transaction returns a single transaction.
func (t *Tracker) Transaction(id int64) (core.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tx, ok := t.ledger.Get(id)
	if !ok {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}
	return tx, nil
}

// Transactions returns every transaction in storage order.
func (t *Tracker) Transactions() []core.Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.List()
}

// BudgetStatus returns the utilization of every budgeted or spent-in
// category, ordered by category.
func (t *Tracker) BudgetStatus() []core.Utilization {
	t.mu.Lock()
	defer t.mu.Unlock()
	return aggregate.SortedUtilization(aggregate.BudgetUtilization(t.ledger.List(), t.budgets.All()))
}

// ChartSeries returns the chart-ready totals.
func (t *Tracker) ChartSeries() core.ChartSeries {
	t.mu.Lock()
	defer t.mu.Unlock()
	return aggregate.ChartSeries(t.ledger.List())
}

// MonthSummary returns totals and per-category spend for month (YYYY-MM).
func (t *Tracker) MonthSummary(month string) (core.MonthOverview, error) {
	if err := core.ValidateMonth(month); err != nil {
		return core.MonthOverview{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return aggregate.Month(t.ledger.List(), month), nil
}

// Budgets returns a copy of every limit.
func (t *Tracker) Budgets() map[string]decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.budgets.All()
}

// Currency returns the current display currency code.
func (t *Tracker) Currency() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currency
}

// Format renders amount in the current currency.
func (t *Tracker) Format(amount decimal.Decimal) string {
	t.mu.Lock()
	code := t.currency
	t.mu.Unlock()
	return t.formatter.Format(amount, code)
}

// Categories returns the categories in use by at least one transaction.
func (t *Tracker) Categories() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Categories()
}

// AllowedCategories returns the configured category set.
func (t *Tracker) AllowedCategories() []string {
	return append([]string(nil), t.categories...)
}

// ExportCSV writes every transaction, oldest first by date.
func (t *Tracker) ExportCSV(w io.Writer) error {
	txs, _ := t.List(query.Criteria{SortKey: query.SortByDate, Direction: query.Asc})
	if err := export.WriteCSV(w, txs); err != nil {
		return fmt.Errorf("export transactions: %w", err)
	}
	return nil
}

// Close releases the event publisher.
func (t *Tracker) Close() error {
	return t.pub.Close()
}

// saveTransactions must be called with mu held.
func (t *Tracker) saveTransactions(ctx context.Context) error {
	if err := t.repo.SaveTransactions(ctx, t.ledger.List()); err != nil {
		return t.persistenceWarning(ctx, store.KeyTransactions, err)
	}
	return nil
}

func (t *Tracker) persistenceWarning(ctx context.Context, key string, err error) error {
	t.logger.WarnContext(ctx, "Change kept in memory but not persisted",
		log.NewFields().
			WithOperation(log.OpSave).
			WithKey(key).
			WithError(err).
			WithErrorType(log.ErrorTypePersistence).
			ToSlice()...)
	return err
}

func (t *Tracker) logTransaction(ctx context.Context, op string, tx core.Transaction) {
	t.logger.InfoContext(ctx, "Transaction "+op+"d",
		log.NewFields().
			WithOperation(op).
			WithTransaction(tx.ID, tx.Kind.String(), tx.Category, tx.Amount.String()).
			ToSlice()...)
}

func (t *Tracker) publish(ctx context.Context, e events.Event) {
	if err := t.pub.Publish(ctx, e); err != nil {
		t.logger.ErrorContext(ctx, "Failed to publish event",
			log.FieldEventType, e.Type,
			log.FieldEventID, e.ID,
			log.FieldError, err)
	}
}
