package http

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/services"
)

// Amounts travel as decimal strings so no precision is lost to float64.

type transactionView struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Formatted   string `json:"formatted"`
}

type summaryView struct {
	Income    string            `json:"income"`
	Expense   string            `json:"expense"`
	Balance   string            `json:"balance"`
	Formatted map[string]string `json:"formatted"`
	Currency  string            `json:"currency"`
	Count     int               `json:"count"`
}

type utilizationView struct {
	Category   string  `json:"category"`
	Spent      string  `json:"spent"`
	Limit      *string `json:"limit"`
	Percentage string  `json:"percentage"`
	Status     string  `json:"status"`
}

type categoryAmountView struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type kindAmountView struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
}

type chartView struct {
	CategoryBreakdown []categoryAmountView `json:"category_breakdown"`
	Empty             bool                 `json:"empty"`
	IncomeVsExpense   []kindAmountView     `json:"income_vs_expense"`
}

type monthView struct {
	Month      string               `json:"month"`
	Income     string               `json:"income"`
	Expense    string               `json:"expense"`
	Balance    string               `json:"balance"`
	ByCategory []categoryAmountView `json:"by_category"`
}

type currencyView struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// money pads to cents and keeps any finer digits the amount was entered with.
func money(d decimal.Decimal) string {
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}

func newTransactionView(tx core.Transaction, format func(decimal.Decimal) string) transactionView {
	return transactionView{
		ID:          tx.ID,
		Type:        tx.Kind.String(),
		Date:        tx.Date,
		Description: tx.Description,
		Category:    tx.Category,
		Amount:      money(tx.Amount),
		Formatted:   format(tx.Signed()),
	}
}

func newTransactionViews(txs []core.Transaction, format func(decimal.Decimal) string) []transactionView {
	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, newTransactionView(tx, format))
	}
	return views
}

func newSummaryView(s services.Summary) summaryView {
	return summaryView{
		Income:  money(s.Totals.Income),
		Expense: money(s.Totals.Expense),
		Balance: money(s.Totals.Balance),
		Formatted: map[string]string{
			"income":  s.Income,
			"expense": s.Expense,
			"balance": s.Balance,
		},
		Currency: s.Currency,
		Count:    s.Count,
	}
}

func newUtilizationViews(us []core.Utilization) []utilizationView {
	views := make([]utilizationView, 0, len(us))
	for _, u := range us {
		v := utilizationView{
			Category:   u.Category,
			Spent:      money(u.Spent),
			Percentage: u.Percentage.StringFixed(2),
			Status:     string(u.Status),
		}
		if u.HasLimit {
			limit := money(u.Limit)
			v.Limit = &limit
		}
		views = append(views, v)
	}
	return views
}

func newCategoryAmountViews(cs []core.CategoryAmount) []categoryAmountView {
	views := make([]categoryAmountView, 0, len(cs))
	for _, c := range cs {
		views = append(views, categoryAmountView{Name: c.Name, Amount: money(c.Amount)})
	}
	return views
}

func newChartView(c core.ChartSeries) chartView {
	v := chartView{
		CategoryBreakdown: newCategoryAmountViews(c.CategoryBreakdown),
		Empty:             c.Empty,
	}
	for _, k := range c.IncomeVsExpense {
		v.IncomeVsExpense = append(v.IncomeVsExpense, kindAmountView{Kind: k.Kind.String(), Amount: money(k.Amount)})
	}
	return v
}

func newMonthView(m core.MonthOverview) monthView {
	return monthView{
		Month:      m.Month,
		Income:     money(m.Totals.Income),
		Expense:    money(m.Totals.Expense),
		Balance:    money(m.Totals.Balance),
		ByCategory: newCategoryAmountViews(m.ByCategory),
	}
}

func budgetsView(limits map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(limits))
	for category, limit := range limits {
		out[category] = money(limit)
	}
	return out
}

func currencyViews() []currencyView {
	specs := currency.All()
	views := make([]currencyView, 0, len(specs))
	for _, s := range specs {
		views = append(views, currencyView{Code: s.Code, Name: s.Name, Symbol: s.Symbol})
	}
	return views
}
