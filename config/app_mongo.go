package config

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/docstore"
	"github.com/akeren/waitlist-api/pkg/retry"
	"go.opentelemetry.io/otel/trace"
)

type DocumentStoreConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	FetchLimit     int64
}

func NewDocumentStoreConfig() *DocumentStoreConfig {
	cfg := &DocumentStoreConfig{
		URI:            sanitizeEnv(GetValueFromEnvironmentVariable("MONGO_URL", "")),
		Database:       sanitizeEnv(GetValueFromEnvironmentVariable("DB_NAME", "")),
		ConnectTimeout: 10 * time.Second,
		FetchLimit:     docstore.DefaultFetchLimit,
	}

	if cfg.Database == "" {
		cfg.Database = DefaultDatabaseName
	}

	if limitStr := sanitizeEnv(GetValueFromEnvironmentVariable("WAITLIST_FETCH_LIMIT", "")); limitStr != "" {
		if parsed, err := strconv.ParseInt(limitStr, 10, 64); err == nil && parsed > 0 {
			cfg.FetchLimit = parsed
		}
	}

	return cfg
}

const DefaultDatabaseName = "waitlist"

func (dc *DocumentStoreConfig) IsConfigured() bool {
	return strings.TrimSpace(dc.URI) != ""
}

// NewDocumentStoreOrNil returns nil when MONGO_URL is unset. A configured but
// unreachable server is an error: the process must not silently switch backends.
// A nil tp leaves spans on the global provider.
func (dc *DocumentStoreConfig) NewDocumentStoreOrNil(ctx context.Context, tp trace.TracerProvider, logger *log.Logger) (docstore.Store, error) {
	if !dc.IsConfigured() {
		logger.Info("Document store (MongoDB) is not configured; waitlist falls back to the local file")
		return nil, nil
	}

	store, err := docstore.Connect(ctx, docstore.ConnectConfig{
		URI:            dc.URI,
		Database:       dc.Database,
		ConnectTimeout: dc.ConnectTimeout,
		Retry: &retry.Config{
			MaxAttempts: 5,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			Multiplier:  2,
		},
		TracerProvider: tp,
	}, logger)
	if err != nil {
		logger.Error("Failed to connect to document store", "database", dc.Database, "error", err)
		return nil, err
	}

	logger.Info("Document store (MongoDB) connected successfully", "database", dc.Database)
	return store, nil
}

func CloseDocumentStore(store docstore.Store, logger *log.Logger) {
	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Close(ctx); err != nil {
		logger.Error("Failed to close document store", "error", err)
		return
	}

	logger.Info("Document store closed successfully")
}
