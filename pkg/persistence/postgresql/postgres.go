// Package postgresql provides PostgreSQL persistence for submissions and messages.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/tangram/pkg/persistence"
	"github.com/dukex/tangram/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	submissionRepo *SubmissionRepository
	messageRepo    *MessageRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and brings the schema up to date.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger = logger.With("module", "postgresql")

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		submissionRepo: NewSubmissionRepository(database, logger),
		messageRepo:    NewMessageRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) SubmissionRepository() persistence.SubmissionRepository {
	return p.submissionRepo
}

func (p *Persistence) MessageRepository() persistence.MessageRepository {
	return p.messageRepo
}
