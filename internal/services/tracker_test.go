package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/query"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func input(kind core.Kind, date, desc, category, amount string) core.TransactionInput {
	return core.TransactionInput{Kind: kind, Date: date, Description: desc, Category: category, Amount: d(amount)}
}

// assertSameTransactions compares amounts by value, since a reload may
// change the decimal exponent.
func assertSameTransactions(t *testing.T, want, got []core.Transaction) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Amount.Equal(got[i].Amount), "amount of %d", want[i].ID)
		w, g := want[i], got[i]
		w.Amount, g.Amount = decimal.Zero, decimal.Zero
		assert.Equal(t, w, g)
	}
}

type fixture struct {
	kv      *memory.Store
	pub     *events.Recorder
	tracker *Tracker
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	kv := memory.New()
	return openFixture(t, kv, opts)
}

func openFixture(t *testing.T, kv *memory.Store, opts Options) *fixture {
	t.Helper()
	pub := &events.Recorder{}
	tr, err := NewTracker(context.Background(), store.NewRepository(kv, nil), pub, nil, opts)
	require.NoError(t, err)
	return &fixture{kv: kv, pub: pub, tracker: tr}
}

func TestTracker_SummaryScenario(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.tracker.AddTransaction(ctx, input(core.Expense, "2025-08-28", "Lunch", "Food", "15.00"))
	require.NoError(t, err)
	_, err = f.tracker.AddTransaction(ctx, input(core.Income, "2025-08-27", "Salary", "Salary", "2000.00"))
	require.NoError(t, err)

	s := f.tracker.Summary()
	assert.True(t, s.Totals.Income.Equal(d("2000")))
	assert.True(t, s.Totals.Expense.Equal(d("15")))
	assert.True(t, s.Totals.Balance.Equal(d("1985")))
	assert.Equal(t, "$1,985.00", s.Balance)
	assert.Equal(t, "$15.00", s.Expense)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, "USD", s.Currency)
}

func TestTracker_ValidationLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.tracker.AddTransaction(ctx, input(core.Expense, "2025-09-01", "", "Food", "10"))
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	assert.Empty(t, f.tracker.Transactions())
	assert.Zero(t, f.kv.Saves())
	assert.Empty(t, f.pub.Events())
}

func TestTracker_MutationsPersistAndPublish(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	out, err := f.tracker.AddTransaction(ctx, input(core.Expense, "2025-08-28", "Lunch", "Food", "15"))
	require.NoError(t, err)
	require.NoError(t, out.Warning)
	id := out.Transaction.ID
	assert.Equal(t, int64(1), id)

	out, err = f.tracker.UpdateTransaction(ctx, id, input(core.Expense, "2025-08-28", "Dinner", "Food", "30"))
	require.NoError(t, err)
	assert.Equal(t, "Dinner", out.Transaction.Description)

	raw, ok := f.kv.Raw(store.KeyTransactions)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"Dinner"`)

	_, err = f.tracker.DeleteTransaction(ctx, id)
	require.NoError(t, err)
	raw, _ = f.kv.Raw(store.KeyTransactions)
	assert.Equal(t, "[]", string(raw))

	got := f.pub.Events()
	require.Len(t, got, 3)
	assert.Equal(t, events.TransactionCreated, got[0].Type)
	assert.Equal(t, events.TransactionUpdated, got[1].Type)
	assert.Equal(t, events.TransactionDeleted, got[2].Type)
	assert.Equal(t, id, got[2].TransactionID)
	assert.Equal(t, "2025-08", got[2].Month)
}

func TestTracker_NotFound(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.tracker.DeleteTransaction(ctx, 42)
	assert.True(t, core.IsNotFound(err))

	_, err = f.tracker.UpdateTransaction(ctx, 42, input(core.Expense, "2025-08-28", "Lunch", "Food", "15"))
	assert.True(t, core.IsNotFound(err))

	_, err = f.tracker.Transaction(42)
	assert.True(t, core.IsNotFound(err))
	assert.Zero(t, f.kv.Saves())
}

func TestTracker_PersistenceFailureIsAWarning(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.kv.FailSaves(memory.ErrQuotaExceeded)

	out, err := f.tracker.AddTransaction(ctx, input(core.Expense, "2025-08-28", "Lunch", "Food", "15"))
	require.NoError(t, err)
	require.Error(t, out.Warning)
	assert.True(t, core.IsPersistence(out.Warning))
	assert.ErrorIs(t, out.Warning, memory.ErrQuotaExceeded)

	// memory stays authoritative
	assert.Len(t, f.tracker.Transactions(), 1)
	assert.Len(t, f.pub.Events(), 1)

	budgets := f.tracker.SetBudgets(ctx, map[string]string{"Food": "100"})
	assert.ErrorIs(t, budgets.Warning, memory.ErrQuotaExceeded)
	limit, ok := f.tracker.Budgets()["Food"]
	assert.True(t, ok)
	assert.True(t, limit.Equal(d("100")))
}

func TestTracker_PublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t, Options{})
	f.pub.Fail(errors.New("broker down"))

	out, err := f.tracker.AddTransaction(context.Background(), input(core.Income, "2025-08-27", "Salary", "Salary", "2000"))
	require.NoError(t, err)
	assert.NoError(t, out.Warning)
	assert.Len(t, f.tracker.Transactions(), 1)
}

func TestTracker_RoundTrip(t *testing.T) {
	kv := memory.New()
	f := openFixture(t, kv, Options{})
	ctx := context.Background()

	_, err := f.tracker.AddTransaction(ctx, input(core.Expense, "2025-08-28", "Lunch", "Food", "15.50"))
	require.NoError(t, err)
	_, err = f.tracker.AddTransaction(ctx, input(core.Income, "2025-08-27", "Salary", "Salary", "2000"))
	require.NoError(t, err)
	f.tracker.SetBudgets(ctx, map[string]string{"Food": "100", "Fun": "0", "Travel": ""})
	_, err = f.tracker.SetCurrency(ctx, "eur")
	require.NoError(t, err)

	reopened := openFixture(t, kv, Options{})
	assert.Empty(t, reopened.tracker.Warnings())
	assertSameTransactions(t, f.tracker.Transactions(), reopened.tracker.Transactions())
	assert.Equal(t, "EUR", reopened.tracker.Currency())

	budgets := reopened.tracker.Budgets()
	require.Len(t, budgets, 2)
	assert.True(t, budgets["Food"].Equal(d("100")))
	assert.True(t, budgets["Fun"].IsZero())

	// ids continue after the highest restored one
	out, err := reopened.tracker.AddTransaction(ctx, input(core.Expense, "2025-08-29", "Bus", "Transport", "2"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Transaction.ID)
}

func TestTracker_LoadRepairs(t *testing.T) {
	kv := memory.New()
	kv.Put(store.KeyTransactions, []byte(`[
		{"id": 5, "type": "expense", "date": "2025-08-28", "description": "Lunch", "category": "Food", "amount": 15},
		{"id": 5, "type": "expense", "date": "2025-08-29", "description": "Dinner", "category": "Food", "amount": 20},
		{"id": 6, "type": "expense", "date": "2025-08-29", "description": "", "category": "Food", "amount": 20}
	]`))
	kv.Put(store.KeyBudgets, []byte(`not json`))
	kv.Put(store.KeyCurrency, []byte(`XYZ`))

	f := openFixture(t, kv, Options{DefaultCurrency: "GBP"})

	txs := f.tracker.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, int64(5), txs[0].ID)
	assert.Equal(t, int64(6), txs[1].ID)
	assert.Empty(t, f.tracker.Budgets())
	assert.Equal(t, "GBP", f.tracker.Currency())
	assert.Len(t, f.tracker.Warnings(), 4)
}

func TestTracker_LoadFailure(t *testing.T) {
	kv := memory.New()
	kv.FailLoads(errors.New("disk unplugged"))

	_, err := NewTracker(context.Background(), store.NewRepository(kv, nil), nil, nil, Options{})
	require.Error(t, err)
	assert.True(t, core.IsPersistence(err))
}

func TestTracker_StrictCategories(t *testing.T) {
	f := newFixture(t, Options{StrictCategories: true})
	ctx := context.Background()

	_, err := f.tracker.AddTransaction(ctx, input(core.Expense, "2025-08-28", "Beer", "Pub", "5"))
	assert.ErrorIs(t, err, core.ErrUnknownCategory)

	_, err = f.tracker.AddTransaction(ctx, input(core.Expense, "2025-08-28", "Lunch", "Food", "5"))
	assert.NoError(t, err)
	assert.Equal(t, core.DefaultCategories, f.tracker.AllowedCategories())
}

func TestTracker_StrictCategoriesKeepsStoredRecords(t *testing.T) {
	kv := memory.New()
	long := strings.Repeat("é", core.MaxDescriptionLength+50)
	kv.Put(store.KeyTransactions, []byte(`[
		{"id": 1, "type": "expense", "date": "2025-08-28", "description": "Weekly shop", "category": "Groceries", "amount": 40},
		{"id": 2, "type": "expense", "date": "2025-08-29", "description": "`+long+`", "category": "Food", "amount": 9}
	]`))

	f := openFixture(t, kv, Options{StrictCategories: true})
	assert.Empty(t, f.tracker.Warnings())

	out, err := f.tracker.AddTransaction(context.Background(), input(core.Expense, "2025-08-30", "Bus", "Transport", "2"))
	require.NoError(t, err)
	assert.NoError(t, out.Warning)
	assert.Equal(t, int64(3), out.Transaction.ID)

	raw, ok, err := kv.Load(context.Background(), store.KeyTransactions)
	require.NoError(t, err)
	require.True(t, ok)
	saved, err := store.DecodeTransactions(raw)
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Equal(t, "Groceries", saved[0].Category)
	assert.Equal(t, long, saved[1].Description)
	assert.Equal(t, "Bus", saved[2].Description)
}

func TestTracker_SetCurrency(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.tracker.SetCurrency(ctx, "CHF")
	assert.ErrorIs(t, err, core.ErrUnknownCurrency)
	assert.Equal(t, "USD", f.tracker.Currency())

	_, err = f.tracker.SetCurrency(ctx, " jpy ")
	require.NoError(t, err)
	assert.Equal(t, "JPY", f.tracker.Currency())
	assert.Equal(t, "¥1,235", f.tracker.Format(d("1234.5")))

	raw, _ := f.kv.Raw(store.KeyCurrency)
	assert.Equal(t, "JPY", string(raw))
	assert.Equal(t, events.CurrencyUpdated, f.pub.Events()[0].Type)
}

func TestTracker_Views(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	for _, in := range []core.TransactionInput{
		input(core.Expense, "2025-08-28", "Lunch", "Food", "95"),
		input(core.Expense, "2025-09-02", "Bus pass", "Transport", "50"),
		input(core.Income, "2025-08-27", "Salary", "Salary", "2000"),
	} {
		_, err := f.tracker.AddTransaction(ctx, in)
		require.NoError(t, err)
	}
	f.tracker.SetBudgets(ctx, map[string]string{"Food": "100"})

	status := f.tracker.BudgetStatus()
	require.Len(t, status, 2)
	assert.Equal(t, "Food", status[0].Category)
	assert.Equal(t, core.StatusDanger, status[0].Status)
	assert.True(t, status[0].Percentage.Equal(d("95")))
	assert.Equal(t, "Transport", status[1].Category)
	assert.True(t, status[1].Percentage.IsZero())

	chart := f.tracker.ChartSeries()
	assert.False(t, chart.Empty)
	assert.Equal(t, "Food", chart.CategoryBreakdown[0].Name)

	list, err := f.tracker.List(query.Criteria{Kind: "expense", Month: "2025-08"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Lunch", list[0].Description)

	_, err = f.tracker.List(query.Criteria{Month: "August"})
	assert.True(t, core.IsValidation(err))

	month, err := f.tracker.MonthSummary("2025-08")
	require.NoError(t, err)
	assert.True(t, month.Totals.Balance.Equal(d("1905")))

	assert.Equal(t, []string{"Food", "Salary", "Transport"}, f.tracker.Categories())
}

func TestTracker_ExportImport(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	_, err := f.tracker.AddTransaction(ctx, input(core.Expense, "2025-08-28", "Lunch, late", "Food", "15"))
	require.NoError(t, err)
	_, err = f.tracker.AddTransaction(ctx, input(core.Income, "2025-08-27", "Salary", "Salary", "2000"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.tracker.ExportCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2,income,2025-08-27,Salary,Salary,2000.00", lines[1])
	assert.Equal(t, `1,expense,2025-08-28,"Lunch, late",Food,15.00`, lines[2])

	other := newFixture(t, Options{})
	result := other.tracker.ImportCSV(ctx, strings.NewReader(buf.String()+"3,expense,2025-08-30,,Food,1\n"))
	require.NoError(t, result.Warning)
	assert.Len(t, result.Added, 2)
	assert.Len(t, result.RowErrors, 1)
	assert.Equal(t, 1, other.kv.Saves())
	require.Len(t, other.pub.Events(), 1)
	assert.Equal(t, events.TransactionsImported, other.pub.Events()[0].Type)
	assert.True(t, other.tracker.Summary().Totals.Balance.Equal(d("1985")))
}
