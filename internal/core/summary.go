package core

import "github.com/shopspring/decimal"

// Utilization thresholds, in percent.
var (
	WarningThreshold = decimal.NewFromInt(70)
	DangerThreshold  = decimal.NewFromInt(90)
)

const (
	StatusNormal  BudgetStatus = "normal"
	StatusWarning BudgetStatus = "warning"
	StatusDanger  BudgetStatus = "danger"
)

// BudgetStatus classifies how close a category is to its limit.
type BudgetStatus string

// Totals is the running summary of the whole ledger.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// KindAmount is one slice of the income-versus-expense chart.
type KindAmount struct {
	Kind   Kind
	Amount decimal.Decimal
}

// Utilization is the budget state of one category. Limit is meaningful only
// when HasLimit is set; Percentage is always within [0, 100].
type Utilization struct {
	Category   string
	Spent      decimal.Decimal
	Limit      decimal.Decimal
	HasLimit   bool
	Percentage decimal.Decimal
	Status     BudgetStatus
}

// ChartSeries is the chart-ready shape of the totals. Empty is set when
// there is no expense data, so a renderer can tell "no data" apart from
// data that sums to zero; CategoryBreakdown is nil in that case.
type ChartSeries struct {
	CategoryBreakdown []CategoryAmount
	Empty             bool
	IncomeVsExpense   []KindAmount
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Month      string // YYYY-MM
	Totals     Totals
	ByCategory []CategoryAmount
}
