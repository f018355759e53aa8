package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dukex/tangram/pkg/persistence"
	"github.com/dukex/tangram/pkg/persistence/file"
	"github.com/dukex/tangram/pkg/persistence/postgresql"
)

// NewPersistence opens the store named by databaseURL. postgres:// and
// postgresql:// URLs use PostgreSQL; file:// URLs and bare paths use the
// JSON file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgresql persistence: %w", err)
		}

		return p, nil
	default:
		root := strings.TrimPrefix(databaseURL, "file://")

		err := os.MkdirAll(root, 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		return file.NewPersistence(root), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return "postgresql"
	default:
		return "file"
	}
}
