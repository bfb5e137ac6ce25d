// Package budget maps categories to monthly spending limits.
package budget

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Registry holds one limit per category. A missing key means "no limit",
// which is not the same as a limit of zero.
type Registry struct {
	limits map[string]decimal.Decimal
}

func New() *Registry {
	return &Registry{limits: make(map[string]decimal.Decimal)}
}

// Restore rebuilds a registry from persisted limits, dropping entries that
// would not pass Set.
func Restore(limits map[string]decimal.Decimal) (*Registry, []string) {
	r := New()
	var warnings []string
	for category, limit := range limits {
		if err := r.Set(category, limit); err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped budget %q: %v", category, err))
		}
	}
	sort.Strings(warnings)
	return r, warnings
}

// Set stores limit for category. The limit must not be negative.
func (r *Registry) Set(category string, limit decimal.Decimal) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return &core.ValidationError{Field: "category", Err: core.ErrEmptyCategory}
	}
	if limit.IsNegative() {
		return &core.ValidationError{Field: "limit", Err: core.ErrInvalidLimit}
	}
	r.limits[category] = limit
	return nil
}

// Clear removes any limit for category. Clearing an absent category is a
// no-op.
func (r *Registry) Clear(category string) {
	delete(r.limits, strings.TrimSpace(category))
}

// Get returns the limit for category, if one is set.
func (r *Registry) Get(category string) (decimal.Decimal, bool) {
	limit, ok := r.limits[strings.TrimSpace(category)]
	return limit, ok
}

// BulkApply mirrors re-submitting the whole budget form: every entry whose
// raw text parses to a number of at least zero is set, every other entry
// (blank or invalid) is cleared.
func (r *Registry) BulkApply(entries map[string]string) {
	for category, raw := range entries {
		if strings.TrimSpace(category) == "" {
			continue
		}
		limit, err := core.ParseLimit(raw)
		if err != nil {
			r.Clear(category)
			continue
		}
		// category is non-empty and limit non-negative, Set cannot fail
		_ = r.Set(category, limit)
	}
}

// All returns a copy of every limit.
func (r *Registry) All() map[string]decimal.Decimal {
	return maps.Clone(r.limits)
}

// Categories returns the categories with a limit, sorted.
func (r *Registry) Categories() []string {
	out := make([]string, 0, len(r.limits))
	for c := range r.limits {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	return len(r.limits)
}
