// Package query filters and sorts ledger snapshots for display.
package query

import (
	"slices"
	"strings"

	"fintrack/internal/core"
)

type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByAmount SortKey = "amount"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// All matches every kind or every category.
const All = "all"

// Criteria selects and orders transactions. Zero values mean "no filter",
// and an empty sort falls back to date descending.
type Criteria struct {
	Search    string
	Kind      string
	Category  string
	Month     string
	SortKey   SortKey
	Direction Direction
}

// ParseSortKey maps user input onto a sort key, defaulting to date.
func ParseSortKey(s string) SortKey {
	if SortKey(strings.ToLower(strings.TrimSpace(s))) == SortByAmount {
		return SortByAmount
	}
	return SortByDate
}

// ParseDirection maps user input onto a direction, defaulting to desc.
func ParseDirection(s string) Direction {
	if Direction(strings.ToLower(strings.TrimSpace(s))) == Asc {
		return Asc
	}
	return Desc
}

// Apply returns a new slice holding the transactions that pass every filter,
// ordered by the criteria. The input slice is never modified. Sorting is
// stable, so ties keep their ledger order.
func Apply(txs []core.Transaction, c Criteria) []core.Transaction {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	kind := strings.ToLower(strings.TrimSpace(c.Kind))
	category := strings.TrimSpace(c.Category)
	month := strings.TrimSpace(c.Month)

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if search != "" && !strings.Contains(strings.ToLower(tx.Description), search) {
			continue
		}
		if kind != "" && kind != All && string(tx.Kind) != kind {
			continue
		}
		if category != "" && category != All && tx.Category != category {
			continue
		}
		if month != "" && tx.Month() != month {
			continue
		}
		out = append(out, tx)
	}

	sign := -1
	if c.Direction == Asc {
		sign = 1
	}
	byAmount := c.SortKey == SortByAmount
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		if byAmount {
			return sign * a.Amount.Cmp(b.Amount)
		}
		// ISO dates order lexically
		return sign * strings.Compare(a.Date, b.Date)
	})
	return out
}
