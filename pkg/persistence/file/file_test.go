package file_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/persistence"
	"github.com/dukex/tangram/pkg/persistence/file"
	"github.com/dukex/tangram/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_HealthCheck(t *testing.T) {
	ctx := context.Background()

	p := file.NewPersistence("file://" + t.TempDir())
	require.NoError(t, p.HealthCheck(ctx))

	missing := file.NewPersistence(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, missing.HealthCheck(ctx), os.ErrNotExist)
	assert.NoError(t, missing.Close(ctx))
}

func TestSubmissionRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := file.NewPersistence(t.TempDir()).SubmissionRepository()

	submission := testutil.CreateTestSubmission(testutil.WithID("sub-1"))
	submission.CreatedAt = time.Time{}

	require.NoError(t, repo.Save(ctx, &submission))
	assert.False(t, submission.CreatedAt.IsZero())
	assert.False(t, submission.UpdatedAt.IsZero())

	loaded, err := repo.GetByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, submission.Name, loaded.Name)
	assert.Equal(t, submission.Stage, loaded.Stage)
	assert.True(t, submission.CreatedAt.Equal(loaded.CreatedAt))

	loaded.Stage = models.StageReviewing
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.GetByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, models.StageReviewing, reloaded.Stage)
	assert.True(t, submission.CreatedAt.Equal(reloaded.CreatedAt), "created at survives updates")
}

func TestSubmissionRepository_GetByID_Errors(t *testing.T) {
	ctx := context.Background()
	repo := file.NewPersistence(t.TempDir()).SubmissionRepository()

	_, err := repo.GetByID(ctx, "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsSubmissionNotFound(err))

	for _, id := range []string{"", "..", "../secrets", `a\b`} {
		_, err = repo.GetByID(ctx, id)
		assert.True(t, persistence.IsInvalidSubmissionID(err), id)

		s := testutil.CreateTestSubmission(testutil.WithID(id))
		assert.True(t, persistence.IsInvalidSubmissionID(repo.Save(ctx, &s)), id)
	}
}

func TestSubmissionRepository_GetAll(t *testing.T) {
	ctx := context.Background()
	repo := file.NewPersistence(t.TempDir()).SubmissionRepository()

	empty, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		s := testutil.CreateTestSubmission(testutil.WithID(id))
		s.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Save(ctx, &s))
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
	assert.Equal(t, "b", all[2].ID)
}

func TestSubmissionRepository_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	repo := file.NewPersistence(t.TempDir()).SubmissionRepository()

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			s := testutil.CreateTestSubmission()
			assert.NoError(t, repo.Save(ctx, &s))
		}()
	}

	wg.Wait()

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	repo := file.NewPersistence(t.TempDir()).MessageRepository()

	base := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{ID: "m1", SubmissionID: "s1", Body: "Report attached", Direction: models.DirectionOutbound, CreatedAt: base},
		{ID: "m2", SubmissionID: "s2", Body: "Hello", Direction: models.DirectionOutbound, CreatedAt: base.Add(time.Minute)},
		{ID: "m3", SubmissionID: "s1", Body: "Thanks!", Direction: models.DirectionInbound, CreatedAt: base.Add(2 * time.Minute)},
	}

	for i := range messages {
		require.NoError(t, repo.Save(ctx, &messages[i]))
	}

	conversation, err := repo.GetBySubmission(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	assert.Equal(t, "m1", conversation[0].ID)
	assert.Equal(t, "m3", conversation[1].ID)

	none, err := repo.GetBySubmission(ctx, "s9")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "m3", all[0].ID, "newest first")

	assert.ErrorIs(t, repo.Save(ctx, &models.Message{ID: "m4", SubmissionID: "s1"}), persistence.ErrInvalidMessage)
}
