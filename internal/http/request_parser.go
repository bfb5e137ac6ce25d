package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/query"
)

// maxBodyBytes bounds JSON bodies; CSV imports get maxImportBytes.
const (
	maxBodyBytes   = 64 << 10
	maxImportBytes = 5 << 20
)

// requestError is a malformed request, answered with 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// transactionRequest is the JSON body of create and update. Amount accepts
// either a JSON number or a string such as "12,50".
type transactionRequest struct {
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      json.RawMessage `json:"amount"`
}

// Input converts the request to a ledger input. Only the type and the
// amount are checked here; the ledger validates the rest.
func (req transactionRequest) Input() (core.TransactionInput, error) {
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.TransactionInput{}, err
	}
	text, err := scalarText(req.Amount)
	if err != nil {
		return core.TransactionInput{}, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	amount, err := core.ParseAmount(text)
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		Kind:        kind,
		Date:        sanitizeInput(req.Date),
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Amount:      amount,
	}, nil
}

// decodeJSON reads a single JSON value from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object")
	}
	return nil
}

func parseTransaction(w http.ResponseWriter, r *http.Request) (core.TransactionInput, error) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.TransactionInput{}, err
	}
	return req.Input()
}

// parseBudgets decodes {"Food": "100", "Rent": 900, "Fun": ""}. Values may
// be strings, numbers or null; null and "" clear the limit.
func parseBudgets(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, badRequest("invalid JSON body: %v", err)
	}

	entries := make(map[string]string, len(raw))
	for category, value := range raw {
		text, err := scalarText(value)
		if err != nil {
			// unparseable values clear the limit like any other invalid entry
			text = ""
		}
		entries[sanitizeInput(category)] = text
	}
	return entries, nil
}

// scalarText returns the text of a JSON string or number. null and a
// missing value give "".
func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// parseID reads the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid transaction id %q", raw)
	}
	return id, nil
}

// parseCriteria maps the list query string onto query criteria. Unknown
// sort keys and directions fall back to date descending.
func parseCriteria(r *http.Request) query.Criteria {
	q := r.URL.Query()
	return query.Criteria{
		Search:    sanitizeInput(q.Get("search")),
		Kind:      sanitizeInput(q.Get("type")),
		Category:  sanitizeInput(q.Get("category")),
		Month:     sanitizeInput(q.Get("month")),
		SortKey:   query.ParseSortKey(q.Get("sort")),
		Direction: query.ParseDirection(q.Get("dir")),
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
