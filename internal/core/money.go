// Package core provides money parsing and handling utilities.
//
// This file contains functions for turning user-entered text and JSON
// numbers into decimal amounts and budget limits.
package core

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user text to a strictly positive decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Signs, exponents, thousands separators and zero are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, ok := parseUnsignedDecimal(s)
	if !ok || !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	return d, nil
}

// ParseLimit converts user text to a budget limit. Zero is a valid limit,
// distinct from "no limit".
func ParseLimit(s string) (decimal.Decimal, error) {
	d, ok := parseUnsignedDecimal(s)
	if !ok {
		return decimal.Zero, &ValidationError{Field: "limit", Err: ErrInvalidLimit}
	}
	return d, nil
}

// AmountFromFloat converts a JSON number to a decimal, rejecting NaN and
// infinities which have no decimal form.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	return decimal.NewFromFloat(f), nil
}

func parseUnsignedDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, false
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, false
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) || r > unicode.MaxASCII {
				return decimal.Zero, false
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
