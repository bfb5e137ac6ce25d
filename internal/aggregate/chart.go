package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// ChartSeries shapes the totals for charts. The category breakdown is
// ordered by amount, largest first, then by name.
func ChartSeries(txs []core.Transaction) core.ChartSeries {
	totals := Totals(txs)
	series := core.ChartSeries{
		IncomeVsExpense: []core.KindAmount{
			{Kind: core.Income, Amount: totals.Income},
			{Kind: core.Expense, Amount: totals.Expense},
		},
	}

	spend := SpendByCategory(txs)
	if len(spend) == 0 {
		series.Empty = true
		return series
	}
	series.CategoryBreakdown = sortedAmounts(spend)
	return series
}

// InMonth returns the transactions dated within month (YYYY-MM), keeping
// their relative order.
func InMonth(txs []core.Transaction, month string) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.Month() == month {
			out = append(out, tx)
		}
	}
	return out
}

// Month summarizes a single month.
func Month(txs []core.Transaction, month string) core.MonthOverview {
	scoped := InMonth(txs, month)
	return core.MonthOverview{
		Month:      month,
		Totals:     Totals(scoped),
		ByCategory: sortedAmounts(SpendByCategory(scoped)),
	}
}

func sortedAmounts(m map[string]decimal.Decimal) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(m))
	for name, amount := range m {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
