// Package sheets keeps the persisted keys in a Google Sheets tab. Column A
// holds the key; the value is split across the following columns because a
// single cell is capped at 50,000 characters.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/store"
)

// chunkSize stays under the per-cell limit with some headroom.
const chunkSize = 45000

// maxChunks is the number of value columns, B through Z.
const maxChunks = 25

// ErrValueTooLarge is returned when a value does not fit in one row.
var ErrValueTooLarge = errors.New("value too large for a single sheet row")

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// values is the subset of the Sheets API the store uses.
type values interface {
	get(ctx context.Context, rng string) ([][]any, error)
	update(ctx context.Context, rng string, rows [][]any) error
	append(ctx context.Context, rng string, rows [][]any) error
}

type Store struct {
	api   values
	sheet string
}

var _ store.KeyValueStore = (*Store)(nil)

// New builds a store authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "fintrack"
	}

	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	if len(credentialsJSON) == 0 {
		path := strings.TrimSpace(cfg.CredentialsFile)
		if path == "" {
			path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if path == "" {
			return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Store{api: &serviceValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, sheet: sheet}, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	rows, err := s.api.get(ctx, s.sheet+"!A1:Z")
	if err != nil {
		return nil, false, fmt.Errorf("read sheet %s: %w", s.sheet, err)
	}
	idx := findRow(rows, key)
	if idx < 0 {
		return nil, false, nil
	}
	var b strings.Builder
	for _, cell := range rows[idx][1:] {
		b.WriteString(fmt.Sprint(cell))
	}
	return []byte(b.String()), true, nil
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	row, err := encodeRow(key, string(value))
	if err != nil {
		return err
	}

	rows, err := s.api.get(ctx, s.sheet+"!A1:A")
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", s.sheet, err)
	}
	idx := findRow(rows, key)
	if idx < 0 {
		if err := s.api.append(ctx, s.sheet+"!A:Z", [][]any{row}); err != nil {
			return fmt.Errorf("append %s: %w", key, err)
		}
		return nil
	}

	// Pad so that leftover chunks from a longer previous value are cleared
	for len(row) < maxChunks+1 {
		row = append(row, "")
	}
	rng := fmt.Sprintf("%s!A%d:Z%d", s.sheet, idx+1, idx+1)
	if err := s.api.update(ctx, rng, [][]any{row}); err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return nil
}

func findRow(rows [][]any, key string) int {
	for i, r := range rows {
		if len(r) > 0 && fmt.Sprint(r[0]) == key {
			return i
		}
	}
	return -1
}

func encodeRow(key, value string) ([]any, error) {
	row := []any{key}
	for len(value) > chunkSize {
		n := chunkSize
		// never split a multi-byte rune across cells
		for n > 0 && !utf8.RuneStart(value[n]) {
			n--
		}
		row = append(row, value[:n])
		value = value[n:]
	}
	row = append(row, value)
	if len(row)-1 > maxChunks {
		return nil, fmt.Errorf("%s: %w", key, ErrValueTooLarge)
	}
	return row, nil
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (v *serviceValues) get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(v.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v *serviceValues) update(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := v.svc.Spreadsheets.Values.Update(v.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (v *serviceValues) append(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := v.svc.Spreadsheets.Values.Append(v.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}
