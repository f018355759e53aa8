package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/persistence"
	"github.com/dukex/tangram/pkg/persistence/postgresql"
	"github.com/dukex/tangram/pkg/testutil"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"messages", "submissions", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("tangram_test"),
			postgres.WithUsername("tangram"),
			postgres.WithPassword("tangram"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)
		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)

	require.NoError(t, p.HealthCheck(ctx))

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	var version int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	again, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err, "migrations are idempotent")
	require.NoError(t, again.Close(ctx))
}

func TestSubmissionRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.SubmissionRepository()

	submission := testutil.CreateTestSubmission(testutil.WithID("sub-1"))
	submission.Deadline = "whenever"
	require.NoError(t, repo.Save(ctx, &submission))

	loaded, err := repo.GetByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, submission.Name, loaded.Name)
	assert.Equal(t, models.ShapeTriangle, loaded.Shape)
	assert.Equal(t, "whenever", loaded.Deadline, "deadlines are stored verbatim")
	assert.Nil(t, loaded.SentDate)

	sentAt := time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC)
	loaded.Stage = models.StageSubmitted
	loaded.SentDate = &sentAt
	loaded.SentToClient = "dana@techcorp.example"
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.GetByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, models.StageSubmitted, reloaded.Stage)
	require.NotNil(t, reloaded.SentDate)
	assert.True(t, sentAt.Equal(*reloaded.SentDate))

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, persistence.IsSubmissionNotFound(err))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMessageRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	submission := testutil.CreateTestSubmission(testutil.WithID("sub-1"), testutil.WithStage(models.StageSubmitted))
	require.NoError(t, p.SubmissionRepository().Save(ctx, &submission))

	repo := p.MessageRepository()
	base := time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &models.Message{
		ID: "m1", SubmissionID: "sub-1", Body: "Report sent", Direction: models.DirectionOutbound, CreatedAt: base,
	}))
	require.NoError(t, repo.Save(ctx, &models.Message{
		ID: "m2", SubmissionID: "sub-1", Body: "Thanks", Direction: models.DirectionInbound, CreatedAt: base.Add(time.Hour),
	}))

	conversation, err := repo.GetBySubmission(ctx, "sub-1")
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	assert.Equal(t, "m1", conversation[0].ID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "m2", all[0].ID)

	err = repo.Save(ctx, &models.Message{ID: "m3", SubmissionID: "nope", Body: "x", Direction: models.DirectionOutbound})
	assert.Error(t, err, "foreign key to submissions")
}
