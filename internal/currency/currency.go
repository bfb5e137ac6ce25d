// Package currency renders amounts for display. A currency here is a
// display format only; amounts are never converted between currencies.
package currency

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"fintrack/internal/core"
)

// Default is the baseline code used when none is configured or a stored
// preference is unusable.
const Default = "USD"

// Spec is the display rule for one currency code.
type Spec struct {
	Code        string
	Name        string
	Symbol      string
	Digits      int
	Locale      language.Tag
	SymbolAfter bool
}

var table = map[string]Spec{
	"USD": {Code: "USD", Name: "US Dollar", Symbol: "$", Digits: 2, Locale: language.AmericanEnglish},
	"EUR": {Code: "EUR", Name: "Euro", Symbol: "€", Digits: 2, Locale: language.German, SymbolAfter: true},
	"GBP": {Code: "GBP", Name: "British Pound", Symbol: "£", Digits: 2, Locale: language.BritishEnglish},
	"JPY": {Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Digits: 0, Locale: language.Japanese},
	"INR": {Code: "INR", Name: "Indian Rupee", Symbol: "₹", Digits: 2, Locale: language.MustParse("en-IN")},
	"CAD": {Code: "CAD", Name: "Canadian Dollar", Symbol: "C$", Digits: 2, Locale: language.MustParse("en-CA")},
	"AUD": {Code: "AUD", Name: "Australian Dollar", Symbol: "A$", Digits: 2, Locale: language.MustParse("en-AU")},
}

// Lookup returns the display rule for code, ignoring case and surrounding
// space.
func Lookup(code string) (Spec, bool) {
	s, ok := table[strings.ToUpper(strings.TrimSpace(code))]
	return s, ok
}

// Normalize returns the canonical form of a supported code. Codes that are
// not valid ISO 4217 or not in the table are rejected.
func Normalize(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", &core.ValidationError{Field: "currency", Err: core.ErrUnknownCurrency}
	}
	if _, ok := table[unit.String()]; !ok {
		return "", &core.ValidationError{Field: "currency", Err: core.ErrUnknownCurrency}
	}
	return unit.String(), nil
}

// Codes lists the supported codes in alphabetical order.
func Codes() []string {
	out := make([]string, 0, len(table))
	for code := range table {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// All returns every supported rule ordered by code.
func All() []Spec {
	codes := Codes()
	out := make([]Spec, len(codes))
	for i, c := range codes {
		out[i] = table[c]
	}
	return out
}

// Formatter formats amounts, falling back to a fixed code for anything it
// does not know.
type Formatter struct {
	fallback Spec
}

// NewFormatter returns a formatter whose fallback is code, or Default when
// code is not supported.
func NewFormatter(code string) *Formatter {
	spec, ok := Lookup(code)
	if !ok {
		spec = table[Default]
	}
	return &Formatter{fallback: spec}
}

// Fallback returns the code used for unknown input.
func (f *Formatter) Fallback() string {
	return f.fallback.Code
}

// Resolve returns the rule for code or the fallback.
func (f *Formatter) Resolve(code string) Spec {
	if spec, ok := Lookup(code); ok {
		return spec
	}
	return f.fallback
}

// Format renders amount with the symbol, precision and digit grouping of
// code. Zero renders as a full zero amount such as "$0.00".
func (f *Formatter) Format(amount decimal.Decimal, code string) string {
	spec := f.Resolve(code)
	rounded := amount.Round(int32(spec.Digits))
	digits := localDigits(rounded.Abs(), spec)

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	if spec.SymbolAfter {
		b.WriteString(digits)
		b.WriteByte(' ')
		b.WriteString(spec.Symbol)
	} else {
		b.WriteString(spec.Symbol)
		b.WriteString(digits)
	}
	return b.String()
}

var maxGrouped = decimal.NewFromInt(math.MaxInt64)

// localDigits renders a non-negative amount with the grouping and decimal
// separator of the currency's locale. The digits come from the exact
// decimal text; only the integer part goes through the locale printer, and
// integer parts beyond int64 are left ungrouped.
func localDigits(abs decimal.Decimal, spec Spec) string {
	whole, frac, _ := strings.Cut(abs.StringFixed(int32(spec.Digits)), ".")

	p := message.NewPrinter(spec.Locale)
	if abs.LessThanOrEqual(maxGrouped) {
		whole = p.Sprint(number.Decimal(abs.IntPart()))
	}
	if frac == "" {
		return whole
	}
	return whole + decimalSeparator(p) + frac
}

func decimalSeparator(p *message.Printer) string {
	sep := strings.Trim(p.Sprint(number.Decimal(0.5, number.Scale(1))), "0123456789")
	if sep == "" {
		return "."
	}
	return sep
}
