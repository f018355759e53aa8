// Package workflow applies stage transitions to submission snapshots.
//
// Every function here takes a snapshot and returns a new one. Records in the
// input are never modified, so readers holding an older snapshot keep seeing
// a consistent view.
package workflow

import (
	"strings"
	"time"

	"github.com/dukex/tangram/pkg/models"
)

// Transition returns a snapshot in which the submission with the given id is
// in newStage. Only the stage changes. An unknown id returns the input
// unchanged. Legality is not checked here; use a Controller for that.
func Transition(submissions []models.Submission, id string, newStage models.Stage) []models.Submission {
	i := indexOf(submissions, id)
	if i < 0 {
		return submissions
	}

	out := models.CloneSubmissions(submissions)
	out[i] = out[i].WithStage(newStage)

	return out
}

// SendDetails carries the bookkeeping recorded when a submission is sent to a client.
type SendDetails struct {
	SentToClient   string `json:"sentToClient"   validate:"required"`
	SentMessage    string `json:"sentMessage"    validate:"required"`
	Recommendation string `json:"recommendation"`
}

// SendToClient moves the submission to submitted and records who it was sent
// to, the message and the send time. A blank recommendation keeps the
// existing one. Submissions already submitted and unknown ids return the
// input unchanged with false.
func SendToClient(
	submissions []models.Submission,
	id string,
	details SendDetails,
	now time.Time,
) ([]models.Submission, bool) {
	i := indexOf(submissions, id)
	if i < 0 || submissions[i].Stage == models.StageSubmitted {
		return submissions, false
	}

	out := models.CloneSubmissions(submissions)
	updated := out[i].WithStage(models.StageSubmitted)
	sentAt := now.UTC()

	updated.SentToClient = details.SentToClient
	updated.SentMessage = details.SentMessage
	updated.SentDate = &sentAt

	if rec := strings.TrimSpace(details.Recommendation); rec != "" {
		updated.Recommendation = rec
	}

	out[i] = updated

	return out, true
}

// Find returns the submission with the given id.
func Find(submissions []models.Submission, id string) (models.Submission, bool) {
	i := indexOf(submissions, id)
	if i < 0 {
		return models.Submission{}, false
	}

	return submissions[i], true
}

func indexOf(submissions []models.Submission, id string) int {
	for i := range submissions {
		if submissions[i].ID == id {
			return i
		}
	}

	return -1
}
