// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/convoflow/pkg/persistence"
	"github.com/dukex/convoflow/pkg/persistence/file"
	"github.com/dukex/convoflow/pkg/persistence/postgresql"
	"github.com/dukex/convoflow/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql"}

// NewPersistence opens the store named by databaseURL: file://<dir> or a
// postgres:// connection string. URLs without a known scheme are treated as
// file paths.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}

// NewWaitStore returns the durable store of pending waits. "database" (or
// an empty value) keeps them next to the executions; a redis:// URL moves
// them to Redis. The returned close function releases the Redis client.
func NewWaitStore(ctx context.Context, logger *slog.Logger, waitStore string, p persistence.Persistence) (persistence.PendingWaitRepository, func() error, error) {
	noop := func() error { return nil }

	switch {
	case waitStore == "" || waitStore == "database":
		return p.PendingWaits(), noop, nil
	case strings.HasPrefix(waitStore, "redis://") || strings.HasPrefix(waitStore, "rediss://"):
		client, err := redis.NewClient(ctx, waitStore)
		if err != nil {
			return nil, noop, err
		}

		return redis.NewPendingWaitRepository(client, "convoflow:", logger), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported wait store %q", waitStore)
	}
}
