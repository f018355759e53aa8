package web_test

import (
	"net/http"
	"testing"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQuery_Dates(t *testing.T) {
	t.Parallel()

	submissions := []models.Submission{
		testutil.CreateTestSubmission(testutil.WithID("a"), func(s *models.Submission) { s.Deadline = "2025-11-20" }),
		testutil.CreateTestSubmission(testutil.WithID("b"), func(s *models.Submission) { s.Deadline = "2025-12-15" }),
		testutil.CreateTestSubmission(testutil.WithID("c"), func(s *models.Submission) { s.Deadline = "not a date" }),
	}

	tests := []struct {
		name  string
		query string
		ids   []string
	}{
		{"range", "?startDate=2025-12-01&endDate=2025-12-31", []string{"b"}},
		{"operator before", "?deadlineOperator=%3C&startDate=2025-12-01", []string{"a"}},
		{"timestamp start", "?deadlineOperator=%3D&startDate=2025-11-20T18:00:00Z", []string{"a"}},
		{"start date alone", "?startDate=2030-01-01", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t, submissions...)

			status, body := doRequest(t, app, http.MethodGet, "/submissions"+tt.query, nil)
			require.Equal(t, http.StatusOK, status, string(body))
			assert.Equal(t, tt.ids, listIDs(t, body))
		})
	}
}

func TestListQuery_StatusIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, seed()...)

	status, body := doRequest(t, app, http.MethodGet, "/submissions?status=REVIEWING,%20Report", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, []string{"2", "3"}, listIDs(t, body))
}
