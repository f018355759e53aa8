package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/persistence/file"
	"github.com/dukex/tangram/pkg/services"
	"github.com/dukex/tangram/pkg/testutil"
	"github.com/dukex/tangram/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, seed ...models.Submission) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	persistence := file.NewPersistence(t.TempDir())

	for i := range seed {
		require.NoError(t, persistence.SubmissionRepository().Save(t.Context(), &seed[i]))
	}

	handlers := web.NewAPIHandlers(
		services.NewSubmissions(logger, persistence, nil),
		services.NewMessages(logger, persistence, nil),
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
	handlers.Register(app)

	return app
}

func seed() []models.Submission {
	return []models.Submission{
		testutil.CreateTestSubmission(testutil.WithID("1"), func(s *models.Submission) { s.Width = 150 }),
		testutil.CreateTestSubmission(testutil.WithID("2"), testutil.WithStage(models.StageReviewing), func(s *models.Submission) {
			s.Width = 200
			s.Company = "Acme Tooling"
		}),
		testutil.CreateTestSubmission(testutil.WithID("3"), testutil.WithStage(models.StageReport), func(s *models.Submission) {
			s.Width = 180
		}),
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

type listResponse struct {
	Submissions []web.SubmissionResponse `json:"submissions"`
	TotalCount  int                      `json:"total_count"`
}

func listIDs(t *testing.T, body []byte) []string {
	t.Helper()

	var resp listResponse
	require.NoError(t, json.Unmarshal(body, &resp))

	ids := make([]string, 0, len(resp.Submissions))
	for _, s := range resp.Submissions {
		ids = append(ids, s.ID)
	}

	assert.Equal(t, len(ids), resp.TotalCount)

	return ids
}

func TestAPIHandlers_ListSubmissions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedIDs    []string
	}{
		{"no filter", "", http.StatusOK, []string{"1", "2", "3"}},
		{"width greater than", "?widthOperator=%3E&widthValue=160", http.StatusOK, []string{"2", "3"}},
		{"malformed number is ignored", "?widthOperator=%3C&widthValue=abc", http.StatusOK, []string{"1", "2", "3"}},
		{"repeated status", "?status=pending&status=report", http.StatusOK, []string{"1", "3"}},
		{"comma separated status", "?status=reviewing,report", http.StatusOK, []string{"2", "3"}},
		{"duplicate status is kept", "?status=pending&status=pending", http.StatusOK, []string{"1"}},
		{"company substring", "?company=acme", http.StatusOK, []string{"2"}},
		{"unknown operator fail-open", "?widthOperator=!%3D&widthValue=150", http.StatusOK, []string{"1", "2", "3"}},
		{"unknown operator fail-closed", "?widthOperator=!%3D&widthValue=150&policy=fail-closed", http.StatusOK, []string{}},
		{"bad status", "?status=archived", http.StatusBadRequest, nil},
		{"bad date", "?startDate=tomorrow", http.StatusBadRequest, nil},
		{"bad policy", "?policy=strict", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t, seed()...)

			status, body := doRequest(t, app, http.MethodGet, "/submissions"+tt.query, nil)
			require.Equal(t, tt.expectedStatus, status, string(body))

			if tt.expectedIDs != nil {
				assert.Equal(t, tt.expectedIDs, listIDs(t, body))
			}
		})
	}
}

func TestAPIHandlers_ListSubmissions_InvalidFilter(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, seed()...)

	for _, target := range []string{"/submissions?status=archived", "/submissions/board?endDate=someday"} {
		status, body := doRequest(t, app, http.MethodGet, target, nil)
		require.Equal(t, http.StatusBadRequest, status, target)

		var problem struct {
			Type   string `json:"type"`
			Detail string `json:"detail"`
		}
		require.NoError(t, json.Unmarshal(body, &problem))
		assert.Equal(t, "validation_error", problem.Type)
		assert.Contains(t, problem.Detail, "invalid query parameters")
	}
}

func TestAPIHandlers_ListSubmissions_ClientLabel(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, seed()...)

	_, body := doRequest(t, app, http.MethodGet, "/submissions?company=acme", nil)

	var resp listResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Submissions, 1)
	assert.Equal(t, "Dana Reyes", resp.Submissions[0].ClientLabel, "contact name wins over company")
}

func TestAPIHandlers_GetBoard(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, seed()...)

	status, body := doRequest(t, app, http.MethodGet, "/submissions/board?widthOperator=%3E%3D&widthValue=180", nil)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Columns []web.ColumnResponse `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Columns, 4)

	assert.Equal(t, models.StagePending, resp.Columns[0].Stage)
	assert.Equal(t, 0, resp.Columns[0].Count)
	assert.Equal(t, 1, resp.Columns[1].Count)
	assert.Equal(t, 1, resp.Columns[2].Count)
	assert.Equal(t, models.StageSubmitted, resp.Columns[3].Stage)
}

func TestAPIHandlers_GetSubmission(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, seed()...)

	status, body := doRequest(t, app, http.MethodGet, "/submissions/2", nil)
	require.Equal(t, http.StatusOK, status)

	var resp web.SubmissionResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "2", resp.ID)
	assert.Equal(t, models.StageReviewing, resp.Stage)

	status, _ = doRequest(t, app, http.MethodGet, "/submissions/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_CreateSubmission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{
			name: "successful creation",
			body: web.CreateSubmissionRequest{
				Name:         "Square plate",
				Shape:        models.ShapeSquare,
				Width:        120,
				Quantity:     10,
				Deadline:     "2026-02-01",
				Company:      "Acme Tooling",
				ContactEmail: "ops@acme.example",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			body:           web.CreateSubmissionRequest{Width: 10},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative width",
			body:           web.CreateSubmissionRequest{Name: "x", Width: -1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad shape",
			body:           web.CreateSubmissionRequest{Name: "x", Shape: "hexagon"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			body:           json.RawMessage(`"not an object"`),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t)

			status, body := doRequest(t, app, http.MethodPost, "/submissions", tt.body)
			require.Equal(t, tt.expectedStatus, status, string(body))

			if status != http.StatusCreated {
				return
			}

			var created web.SubmissionResponse
			require.NoError(t, json.Unmarshal(body, &created))
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, models.StagePending, created.Stage)

			status, _ = doRequest(t, app, http.MethodGet, "/submissions/"+created.ID, nil)
			assert.Equal(t, http.StatusOK, status)
		})
	}
}

func TestAPIHandlers_CreateSubmission_ExistingID(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, seed()...)

	status, body := doRequest(t, app, http.MethodPost, "/submissions", web.CreateSubmissionRequest{
		ID:   "3",
		Name: "replacement",
	})
	require.Equal(t, http.StatusConflict, status, string(body))

	status, body = doRequest(t, app, http.MethodGet, "/submissions/3", nil)
	require.Equal(t, http.StatusOK, status)

	var stored web.SubmissionResponse
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Equal(t, models.StageReport, stored.Stage)
	assert.NotEqual(t, "replacement", stored.Name)
}

func TestAPIHandlers_UpdateStage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		id             string
		stage          string
		expectedStatus int
	}{
		{"legal successor", "1", "reviewing", http.StatusOK},
		{"skipping a stage", "1", "report", http.StatusConflict},
		{"backwards", "2", "pending", http.StatusConflict},
		{"unknown stage", "1", "archived", http.StatusBadRequest},
		{"missing stage", "1", "", http.StatusBadRequest},
		{"unknown submission", "missing", "reviewing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t, seed()...)

			status, body := doRequest(t, app, http.MethodPatch, "/submissions/"+tt.id, web.UpdateStageRequest{Stage: tt.stage})
			require.Equal(t, tt.expectedStatus, status, string(body))

			if status == http.StatusOK {
				var resp web.TransitionResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.True(t, resp.Outcome.Applied)
				assert.Equal(t, models.Stage(tt.stage), resp.Submission.Stage)
			}
		})
	}
}

func TestAPIHandlers_ApplyAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		id             string
		action         string
		expectedStatus int
		expectedStage  models.Stage
		chatOpen       bool
	}{
		{"close pending", "1", "close", http.StatusOK, models.StageReviewing, false},
		{"submit reviewing", "2", "submit", http.StatusOK, models.StageReport, false},
		{"send report", "3", "send_report", http.StatusOK, models.StageSubmitted, true},
		{"submit pending", "1", "submit", http.StatusConflict, "", false},
		{"unknown action", "1", "archive", http.StatusBadRequest, "", false},
		{"unknown submission", "missing", "close", http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t, seed()...)

			status, body := doRequest(t, app, http.MethodPost, "/submissions/"+tt.id+"/actions/"+tt.action, nil)
			require.Equal(t, tt.expectedStatus, status, string(body))

			if status != http.StatusOK {
				return
			}

			var resp web.TransitionResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, tt.expectedStage, resp.Submission.Stage)
			assert.Equal(t, tt.chatOpen, resp.ChatOpen)
		})
	}
}

func TestAPIHandlers_SendToClientAndChat(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, seed()...)

	status, _ := doRequest(t, app, http.MethodPost, "/submissions/3/messages", web.PostMessageRequest{Body: "hello"})
	assert.Equal(t, http.StatusConflict, status, "chat is closed before the report is sent")

	status, body := doRequest(t, app, http.MethodPost, "/submissions/3/send", web.SendToClientRequest{
		SentToClient:   "dana@techcorp.example",
		SentMessage:    "Your report is attached",
		Recommendation: "Use PETG",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var resp web.TransitionResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, models.StageSubmitted, resp.Submission.Stage)
	assert.Equal(t, "Use PETG", resp.Submission.Recommendation)
	assert.NotNil(t, resp.Submission.SentDate)
	assert.True(t, resp.ChatOpen)

	status, _ = doRequest(t, app, http.MethodPost, "/submissions/3/send", web.SendToClientRequest{
		SentToClient: "dana@techcorp.example",
		SentMessage:  "again",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body = doRequest(t, app, http.MethodPost, "/submissions/3/messages", web.PostMessageRequest{
		Body:      "Thanks, approved",
		Direction: models.DirectionInbound,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = doRequest(t, app, http.MethodGet, "/submissions/3/messages", nil)
	require.Equal(t, http.StatusOK, status)

	var conversation struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &conversation))
	require.Len(t, conversation.Messages, 2)
	assert.Equal(t, "Your report is attached", conversation.Messages[0].Body)
	assert.Equal(t, models.DirectionInbound, conversation.Messages[1].Direction)

	status, body = doRequest(t, app, http.MethodGet, "/messages", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &conversation))
	assert.Len(t, conversation.Messages, 2)
}

func TestAPIHandlers_SendToClient_Validation(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, seed()...)

	status, _ := doRequest(t, app, http.MethodPost, "/submissions/3/send", web.SendToClientRequest{SentToClient: "dana"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodPost, "/submissions/missing/send", web.SendToClientRequest{
		SentToClient: "dana",
		SentMessage:  "hi",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "healthy", resp["status"])
}
