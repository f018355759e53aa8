package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/tangram/pkg/filter"
	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestSnapshot(t *testing.T) string {
	t.Helper()

	submissions := []models.Submission{
		testutil.CreateTestSubmission(testutil.WithID("1"), func(s *models.Submission) { s.Width = 150 }),
		testutil.CreateTestSubmission(testutil.WithID("2"), testutil.WithStage(models.StageReviewing), func(s *models.Submission) {
			s.Width = 200
			s.Company = "Acme Tooling"
			s.ContactName = ""
		}),
		testutil.CreateTestSubmission(testutil.WithID("3"), testutil.WithStage(models.StageReport), func(s *models.Submission) {
			s.Width = 180
		}),
	}

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, writeSnapshot(path, submissions))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	app := newApp()
	app.Writer = &out

	err := app.Run(context.Background(), append([]string{"tangram"}, args...))

	return out.String(), err
}

func TestFilterCommand_JSON(t *testing.T) {
	path := writeTestSnapshot(t)

	out, err := run(t, "filter", "-f", path, "-o", "json", "--width-operator", ">", "--width-value", "160")
	require.NoError(t, err)

	var matched []models.Submission
	require.NoError(t, json.Unmarshal([]byte(out), &matched))
	require.Len(t, matched, 2)
	assert.Equal(t, "2", matched[0].ID)
	assert.Equal(t, "3", matched[1].ID)
}

func TestFilterCommand_Status(t *testing.T) {
	path := writeTestSnapshot(t)

	out, err := run(t, "filter", "-f", path, "-o", "json", "--status", "pending,report")
	require.NoError(t, err)

	var matched []models.Submission
	require.NoError(t, json.Unmarshal([]byte(out), &matched))
	require.Len(t, matched, 2)
	assert.Equal(t, "1", matched[0].ID)
	assert.Equal(t, "3", matched[1].ID)
}

func TestFilterCommand_Table(t *testing.T) {
	path := writeTestSnapshot(t)

	out, err := run(t, "filter", "-f", path, "--company", "acme")
	require.NoError(t, err)

	assert.Contains(t, out, "Acme Tooling")
	assert.Contains(t, out, "200 x 100 x 75")
	assert.Contains(t, out, "1 of 3")
	assert.NotContains(t, out, "\x1b[", "no colors when not writing to a terminal")
}

func TestFilterCommand_Errors(t *testing.T) {
	path := writeTestSnapshot(t)

	_, err := run(t, "filter", "-f", path, "--status", "archived")
	require.Error(t, err)

	_, err = run(t, "filter", "-f", path, "--start-date", "someday")
	require.Error(t, err)

	_, err = run(t, "filter", "-f", path, "--policy", "strict")
	require.Error(t, err)

	_, err = run(t, "filter", "-f", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestBoardCommand(t *testing.T) {
	path := writeTestSnapshot(t)

	out, err := run(t, "board", "-f", path, "-o", "json")
	require.NoError(t, err)

	var board []filter.Column
	require.NoError(t, json.Unmarshal([]byte(out), &board))
	require.Len(t, board, 4)
	assert.Len(t, board[0].Submissions, 1)
	assert.Empty(t, board[3].Submissions)

	out, err = run(t, "board", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "submitted (0)")
}

func TestApplyCommand(t *testing.T) {
	path := writeTestSnapshot(t)

	out, err := run(t, "apply", "-f", path, "--id", "1", "--action", "close")
	require.NoError(t, err)
	assert.Equal(t, "1: pending -> reviewing\n", out)

	saved, err := readSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, models.StageReviewing, saved[0].Stage)

	_, err = run(t, "apply", "-f", path, "--id", "1", "--stage", "submitted")
	require.ErrorIs(t, err, errNotApplied)

	_, err = run(t, "apply", "-f", path, "--id", "missing", "--action", "close")
	require.ErrorIs(t, err, errNotApplied)

	_, err = run(t, "apply", "-f", path, "--id", "1")
	require.ErrorIs(t, err, errActionOrStage)
}

func TestApplyCommand_DryRun(t *testing.T) {
	path := writeTestSnapshot(t)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	out, err := run(t, "apply", "-f", path, "--id", "3", "--action", "send_report", "--dry-run", "-o", "json")
	require.NoError(t, err)

	var result struct {
		Submission models.Submission `json:"submission"`
		ChatOpen   bool              `json:"chatOpen"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, models.StageSubmitted, result.Submission.Stage)
	assert.True(t, result.ChatOpen)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
