// Package aggregate derives read-only views from a ledger and budget
// snapshot. Every function is pure and recomputes from scratch; nothing is
// cached between calls.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Totals sums income and expense and derives the balance. An empty ledger
// yields all zeros.
func Totals(txs []core.Transaction) core.Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expense = expense.Add(tx.Amount)
		}
	}
	return core.Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}

// SpendByCategory sums expense amounts per category. Income is excluded,
// so the values always add up to Totals(txs).Expense.
func SpendByCategory(txs []core.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Kind != core.Expense {
			continue
		}
		out[tx.Category] = out[tx.Category].Add(tx.Amount)
	}
	return out
}

// BudgetUtilization reports every category that has a limit or at least one
// expense. Percentage is spent/limit*100 capped at 100; it is 0 when no limit
// is set. A zero limit counts as fully used as soon as anything is spent.
func BudgetUtilization(txs []core.Transaction, limits map[string]decimal.Decimal) map[string]core.Utilization {
	spend := SpendByCategory(txs)
	out := make(map[string]core.Utilization, len(spend)+len(limits))

	for category, limit := range limits {
		out[category] = utilization(category, spend[category], limit, true)
	}
	for category, spent := range spend {
		if _, ok := limits[category]; ok {
			continue
		}
		out[category] = utilization(category, spent, decimal.Zero, false)
	}
	return out
}

// SortedUtilization flattens a utilization map into category order.
func SortedUtilization(m map[string]core.Utilization) []core.Utilization {
	out := make([]core.Utilization, 0, len(m))
	for _, u := range m {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Status classifies a utilization percentage.
func Status(percentage decimal.Decimal) core.BudgetStatus {
	switch {
	case percentage.GreaterThanOrEqual(core.DangerThreshold):
		return core.StatusDanger
	case percentage.GreaterThanOrEqual(core.WarningThreshold):
		return core.StatusWarning
	default:
		return core.StatusNormal
	}
}

func utilization(category string, spent, limit decimal.Decimal, hasLimit bool) core.Utilization {
	pct := decimal.Zero
	if hasLimit {
		switch {
		case limit.IsPositive():
			pct = decimal.Min(spent.Mul(hundred).Div(limit), hundred)
		case spent.IsPositive():
			pct = hundred
		}
	}
	// classify before rounding so 89.996 stays below the danger threshold
	return core.Utilization{
		Category:   category,
		Spent:      spent,
		Limit:      limit,
		HasLimit:   hasLimit,
		Percentage: pct.Round(2),
		Status:     Status(pct),
	}
}
