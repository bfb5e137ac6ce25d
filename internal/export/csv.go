// Package export serializes the ledger to CSV and reads it back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Header is the column layout of an export.
var Header = []string{"ID", "Type", "Date", "Description", "Category", "Amount"}

// WriteCSV writes one row per transaction, in the order given. Fields with
// commas, quotes or newlines are quoted by encoding/csv.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		row := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Kind.String(),
			tx.Date,
			tx.Description,
			tx.Category,
			amountText(tx.Amount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %d: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// amountText pads to cents but never rounds away sub-cent digits, so an
// export always imports back to the same amount.
func amountText(amount decimal.Decimal) string {
	if amount.Equal(amount.Round(2)) {
		return amount.StringFixed(2)
	}
	return amount.String()
}

// ParseCSV reads an export back into transaction inputs. The ID column is
// ignored since imported rows get fresh ids. Rows that do not validate are
// skipped and described in the returned messages.
func ParseCSV(r io.Reader) ([]core.TransactionInput, []string) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, []string{fmt.Sprintf("Failed to read CSV: %v", err)}
	}
	if len(records) < 2 {
		return nil, nil // Empty or header-only
	}

	headers := parseHeaders(records[0])
	for _, required := range Header[1:] {
		if _, ok := headers[strings.ToLower(required)]; !ok {
			return nil, []string{fmt.Sprintf("Missing column %s", required)}
		}
	}

	var inputs []core.TransactionInput
	var errors []string
	for i, record := range records[1:] {
		rowNum := i + 2
		if len(record) < len(headers) {
			errors = append(errors, fmt.Sprintf("Row %d: Not enough fields", rowNum))
			continue
		}

		in, err := mapToInput(record, headers)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, errors
}

// parseHeaders maps lowercased column names to their index.
func parseHeaders(row []string) map[string]int {
	headers := make(map[string]int, len(row))
	for i, h := range row {
		headers[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return headers
}

func mapToInput(record []string, headers map[string]int) (core.TransactionInput, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[headers[name]])
	}

	kind, err := core.ParseKind(field("type"))
	if err != nil {
		return core.TransactionInput{}, err
	}
	amount, err := core.ParseAmount(field("amount"))
	if err != nil {
		return core.TransactionInput{}, err
	}

	in := core.TransactionInput{
		Kind:        kind,
		Date:        field("date"),
		Description: field("description"),
		Category:    field("category"),
		Amount:      amount,
	}.Normalize()
	if err := in.Validate(); err != nil {
		return core.TransactionInput{}, err
	}
	return in, nil
}
