package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted in DATA_BACKEND.
var DataBackends = []string{"memory", "sqlite", "postgres", "sheets", "azblob", "aztables"}

// Event transports accepted in EVENTS_BACKEND.
var EventBackends = []string{"none", "amqp", "kafka", "azqueue"}

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend   string
	DataDirectory string

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresURL string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleKVSheetName        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Azure Storage
	AzureBlobServiceURL  string
	AzureBlobContainer   string
	AzureTableServiceURL string
	AzureTableName       string

	// Read-through cache for remote backends
	StoreCacheSize int
	StoreCacheTTL  time.Duration

	// Ledger-change events
	EventsBackend        string
	AMQPURL              string
	AMQPExchange         string
	AMQPQueue            string
	KafkaBrokers         []string
	KafkaTopic           string
	AzureQueueServiceURL string
	AzureQueueName       string

	// Domain
	DefaultCurrency  string
	StrictCategories bool

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleKVSheetName:        getEnv("GOOGLE_KV_SHEET_NAME", "fintrack"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		AzureBlobServiceURL:  getEnv("AZURE_BLOB_SERVICE_URL", ""),
		AzureBlobContainer:   getEnv("AZURE_BLOB_CONTAINER", "fintrack"),
		AzureTableServiceURL: getEnv("AZURE_TABLE_SERVICE_URL", ""),
		AzureTableName:       getEnv("AZURE_TABLE_NAME", "fintrack"),

		StoreCacheSize: getEnvInt("STORE_CACHE_SIZE", 16),
		StoreCacheTTL:  getEnvDuration("STORE_CACHE_TTL", 5*time.Minute),

		EventsBackend:        getEnv("EVENTS_BACKEND", "none"),
		AMQPURL:              getEnv("AMQP_URL", ""),
		AMQPExchange:         getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:            getEnv("AMQP_QUEUE", "ledger_events"),
		KafkaBrokers:         getEnvList("KAFKA_BROKERS"),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "ledger_events"),
		AzureQueueServiceURL: getEnv("AZURE_QUEUE_SERVICE_URL", ""),
		AzureQueueName:       getEnv("AZURE_QUEUE_NAME", "ledger-events"),

		DefaultCurrency:  strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		StrictCategories: getEnvBool("STRICT_CATEGORIES", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(DataBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, DataBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid POSTGRES_URL: must be a postgres:// URL")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleKVSheetName == "" {
			errors = append(errors, "Google sheet name is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case "azblob":
		errors = append(errors, validateServiceURL("AZURE_BLOB_SERVICE_URL", c.AzureBlobServiceURL)...)
		if c.AzureBlobContainer == "" {
			errors = append(errors, "AZURE_BLOB_CONTAINER cannot be empty when using azblob backend")
		}
	case "aztables":
		errors = append(errors, validateServiceURL("AZURE_TABLE_SERVICE_URL", c.AzureTableServiceURL)...)
		if c.AzureTableName == "" {
			errors = append(errors, "AZURE_TABLE_NAME cannot be empty when using aztables backend")
		}
	}

	if c.StoreCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid store cache size %d: must be at least 1", c.StoreCacheSize))
	}
	if c.StoreCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid store cache ttl %v: must be at least 1 second", c.StoreCacheTTL))
	}

	if !slices.Contains(EventBackends, c.EventsBackend) {
		errors = append(errors, fmt.Sprintf("invalid events backend '%s': must be one of %v", c.EventsBackend, EventBackends))
	}

	switch c.EventsBackend {
	case "amqp":
		if c.AMQPURL == "" {
			errors = append(errors, "AMQP_URL is required when using amqp events")
		} else if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when using amqp events")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when using amqp events")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			errors = append(errors, "KAFKA_BROKERS is required when using kafka events")
		}
		if c.KafkaTopic == "" {
			errors = append(errors, "KAFKA_TOPIC cannot be empty when using kafka events")
		}
	case "azqueue":
		errors = append(errors, validateServiceURL("AZURE_QUEUE_SERVICE_URL", c.AzureQueueServiceURL)...)
		if c.AzureQueueName == "" {
			errors = append(errors, "AZURE_QUEUE_NAME cannot be empty when using azqueue events")
		}
	}

	if len(c.DefaultCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': must be a 3-letter code", c.DefaultCurrency))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func validateServiceURL(name, value string) []string {
	if value == "" {
		return []string{name + " is required"}
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return []string{fmt.Sprintf("invalid %s '%s': must be an http(s) URL", name, value)}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
