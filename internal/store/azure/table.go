package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"fintrack/internal/azauth"
	"fintrack/internal/store"
)

const (
	partitionKey = "fintrack"

	// A string property holds at most 64 KiB of UTF-16; stay well below.
	tableChunkSize = 30000
	// An entity holds at most 252 custom properties.
	maxTableChunks = 240
)

// ErrEntityTooLarge is returned when a value does not fit in one entity.
var ErrEntityTooLarge = errors.New("value too large for a single table entity")

// tableAPI is the slice of aztables.Client the store needs.
type tableAPI interface {
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
}

// TableStore keeps one entity per key in a single partition. Values are
// split over V000, V001... properties.
type TableStore struct {
	client tableAPI
}

var _ store.KeyValueStore = (*TableStore)(nil)

// NewTableStore connects to serviceURL and makes sure table exists.
func NewTableStore(ctx context.Context, serviceURL, table string) (*TableStore, error) {
	if serviceURL == "" {
		return nil, fmt.Errorf("table service url is required")
	}

	var svc *aztables.ServiceClient
	if azauth.IsLocal(serviceURL) {
		slog.Info("using Azurite credentials for table store")
		name, key := azauth.Azurite()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("create shared key credential: %w", err)
		}
		svc, err = aztables.NewServiceClientWithSharedKey(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create table service client with shared key: %w", err)
		}
	} else {
		cred, err := azauth.Default()
		if err != nil {
			return nil, fmt.Errorf("create default azure credential: %w", err)
		}
		svc, err = aztables.NewServiceClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create table service client: %w", err)
		}
	}

	if _, err := svc.CreateTable(ctx, table, nil); err != nil {
		var azErr *azcore.ResponseError
		if !errors.As(err, &azErr) || azErr.ErrorCode != "TableAlreadyExists" {
			return nil, fmt.Errorf("create table %s: %w", table, err)
		}
	}

	return &TableStore{client: svc.NewClient(table)}, nil
}

func (s *TableStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := s.client.GetEntity(ctx, partitionKey, key, nil)
	if err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get entity %s: %w", key, err)
	}

	var entity map[string]any
	if err := json.Unmarshal(resp.Value, &entity); err != nil {
		return nil, false, fmt.Errorf("decode entity %s: %w", key, err)
	}
	n, _ := entity["Chunks"].(float64)
	var b strings.Builder
	for i := 0; i < int(n); i++ {
		part, _ := entity[chunkProperty(i)].(string)
		b.WriteString(part)
	}
	return []byte(b.String()), true, nil
}

func (s *TableStore) Save(ctx context.Context, key string, value []byte) error {
	chunks := splitRunes(string(value), tableChunkSize)
	if len(chunks) > maxTableChunks {
		return fmt.Errorf("%s: %w", key, ErrEntityTooLarge)
	}

	entity := map[string]any{
		"PartitionKey": partitionKey,
		"RowKey":       key,
		"Chunks":       len(chunks),
	}
	for i, c := range chunks {
		entity[chunkProperty(i)] = c
	}
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode entity %s: %w", key, err)
	}

	// Replace drops properties left over from a longer previous value
	_, err = s.client.UpsertEntity(ctx, body, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		return fmt.Errorf("upsert entity %s: %w", key, err)
	}
	return nil
}

func chunkProperty(i int) string {
	return fmt.Sprintf("V%03d", i)
}

// splitRunes cuts s into pieces of at most size bytes without splitting a
// rune. An empty s yields one empty piece.
func splitRunes(s string, size int) []string {
	var out []string
	for len(s) > size {
		n := size
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		out = append(out, s[:n])
		s = s[n:]
	}
	return append(out, s)
}
