package workflow

import (
	"log/slog"
	"time"

	"github.com/dukex/tangram/pkg/models"
)

// Outcome describes what an action did to a submission.
type Outcome struct {
	Applied bool         `json:"applied"`
	From    models.Stage `json:"from"`
	To      models.Stage `json:"to"`
}

// OpensChat reports whether the outcome moved the submission into submitted.
func (o Outcome) OpensChat() bool {
	return o.Applied && o.To.AcceptsChat()
}

// Controller owns the current snapshot and the record open in the detail
// view. Actions are checked against the stage machine before being applied,
// and the selected copy is refreshed after every change so it never goes
// stale.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	logger      *slog.Logger
	submissions []models.Submission
	selectedID  string
	selected    *models.Submission
}

// NewController creates a controller over the given snapshot.
func NewController(logger *slog.Logger, submissions []models.Submission) *Controller {
	return &Controller{
		logger:      logger.With("module", "workflow_controller"),
		submissions: submissions,
	}
}

// Submissions returns the current snapshot.
func (c *Controller) Submissions() []models.Submission {
	return c.submissions
}

// Selected returns a copy of the open record.
func (c *Controller) Selected() (models.Submission, bool) {
	if c.selected == nil {
		return models.Submission{}, false
	}

	return *c.selected, true
}

// Select opens the detail view for id. It returns false when no such
// submission exists, leaving the previous selection untouched.
func (c *Controller) Select(id string) bool {
	s, ok := Find(c.submissions, id)
	if !ok {
		return false
	}

	c.selectedID = id
	c.selected = &s

	return true
}

// Close dismisses the detail view. A pending record that is closed without
// being submitted has been looked at, so it advances to reviewing.
func (c *Controller) Close() Outcome {
	if c.selected == nil {
		return Outcome{}
	}

	id := c.selectedID

	outcome := Outcome{From: c.selected.Stage, To: c.selected.Stage}
	if c.selected.Stage == models.StagePending {
		outcome = c.Apply(id, models.ActionClose)
	}

	c.selectedID = ""
	c.selected = nil

	return outcome
}

// Apply performs action on the submission with the given id. The action is
// applied only when the submission is in the action's source stage; in any
// other case the snapshot is left as is and Applied is false.
func (c *Controller) Apply(id string, action models.Action) Outcome {
	current, ok := Find(c.submissions, id)
	if !ok {
		return Outcome{}
	}

	from, to, ok := action.Stages()
	if !ok || current.Stage != from {
		c.logger.Debug("action not applicable",
			"submission_id", id,
			"action", action,
			"stage", current.Stage)

		return Outcome{From: current.Stage, To: current.Stage}
	}

	c.setSnapshot(Transition(c.submissions, id, to))

	c.logger.Info("stage changed",
		"submission_id", id,
		"action", action,
		"from", from,
		"to", to)

	return Outcome{Applied: true, From: from, To: to}
}

// MoveTo advances the submission to stage when that is its legal successor.
func (c *Controller) MoveTo(id string, stage models.Stage) Outcome {
	current, ok := Find(c.submissions, id)
	if !ok {
		return Outcome{}
	}

	if !models.CanTransition(current.Stage, stage) {
		return Outcome{From: current.Stage, To: current.Stage}
	}

	c.setSnapshot(Transition(c.submissions, id, stage))

	return Outcome{Applied: true, From: current.Stage, To: stage}
}

// Send records the send-to-client details and moves the submission to
// submitted. It works from any stage before submitted.
func (c *Controller) Send(id string, details SendDetails, now time.Time) Outcome {
	current, ok := Find(c.submissions, id)
	if !ok {
		return Outcome{}
	}

	updated, applied := SendToClient(c.submissions, id, details, now)
	if !applied {
		return Outcome{From: current.Stage, To: current.Stage}
	}

	c.setSnapshot(updated)

	c.logger.Info("sent to client",
		"submission_id", id,
		"from", current.Stage,
		"recipient", details.SentToClient)

	return Outcome{Applied: true, From: current.Stage, To: models.StageSubmitted}
}

// Refresh replaces the snapshot, for example after a poll, and resyncs the
// selected record. If the selected record is gone the selection is cleared.
func (c *Controller) Refresh(submissions []models.Submission) {
	c.setSnapshot(submissions)
}

func (c *Controller) setSnapshot(submissions []models.Submission) {
	c.submissions = submissions

	if c.selected == nil {
		return
	}

	s, ok := Find(submissions, c.selectedID)
	if !ok {
		c.selectedID = ""
		c.selected = nil

		return
	}

	c.selected = &s
}
