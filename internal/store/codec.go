package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// number is a decimal that marshals as a bare JSON number.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

func (n *number) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*n = number(d)
	return nil
}

type transactionRecord struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      number `json:"amount"`
}

// EncodeTransactions renders the ledger as a JSON array.
func EncodeTransactions(txs []core.Transaction) ([]byte, error) {
	records := make([]transactionRecord, len(txs))
	for i, tx := range txs {
		records[i] = transactionRecord{
			ID:          tx.ID,
			Type:        string(tx.Kind),
			Date:        tx.Date,
			Description: tx.Description,
			Category:    tx.Category,
			Amount:      number(tx.Amount),
		}
	}
	return json.Marshal(records)
}

// DecodeTransactions parses a JSON array of transactions. Records are
// returned as found; validating them is the ledger's job.
func DecodeTransactions(b []byte) ([]core.Transaction, error) {
	var records []transactionRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]core.Transaction, len(records))
	for i, r := range records {
		out[i] = core.Transaction{
			ID:          r.ID,
			Kind:        core.Kind(strings.ToLower(r.Type)),
			Date:        r.Date,
			Description: r.Description,
			Category:    r.Category,
			Amount:      decimal.Decimal(r.Amount),
		}
	}
	return out, nil
}

// EncodeBudgets renders the limits as a JSON object of numbers.
func EncodeBudgets(limits map[string]decimal.Decimal) ([]byte, error) {
	m := make(map[string]number, len(limits))
	for k, v := range limits {
		m[k] = number(v)
	}
	return json.Marshal(m)
}

// DecodeBudgets parses a JSON object of category limits.
func DecodeBudgets(b []byte) (map[string]decimal.Decimal, error) {
	var m map[string]number
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = decimal.Decimal(v)
	}
	return out, nil
}

// EncodeCurrency stores the code as raw text.
func EncodeCurrency(code string) []byte {
	return []byte(code)
}

// DecodeCurrency accepts the raw code or a JSON string holding it.
func DecodeCurrency(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", fmt.Errorf("decode currency: %w", err)
		}
		b = []byte(strings.TrimSpace(s))
	}
	if len(b) == 0 {
		return "", errors.New("decode currency: empty value")
	}
	return string(b), nil
}
