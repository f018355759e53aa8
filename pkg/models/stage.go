package models

import (
	"fmt"
	"slices"
	"strings"
)

// Stage represents the lifecycle state of a submission.
type Stage string

const (
	StagePending   Stage = "pending"   // Received, not opened yet
	StageReviewing Stage = "reviewing" // Opened by staff at least once
	StageReport    Stage = "report"    // Report drafted, waiting to be sent
	StageSubmitted Stage = "submitted" // Report sent, client chat open
)

// Stages lists every stage in workflow order.
var Stages = []Stage{StagePending, StageReviewing, StageReport, StageSubmitted}

// Action names a user action that moves a submission forward one stage.
type Action string

const (
	ActionClose      Action = "close"       // Detail view dismissed without submitting
	ActionSubmit     Action = "submit"      // Reviewer submits the record for reporting
	ActionSendReport Action = "send_report" // Report sent to the client
)

// transitions maps each action to the single from/to pair it is allowed on.
var transitions = map[Action][2]Stage{
	ActionClose:      {StagePending, StageReviewing},
	ActionSubmit:     {StageReviewing, StageReport},
	ActionSendReport: {StageReport, StageSubmitted},
}

// ParseStage converts user input into a Stage.
func ParseStage(value string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(value)))
	if !stage.Valid() {
		return "", fmt.Errorf("unknown stage %q", value)
	}

	return stage, nil
}

// Valid reports whether s is one of the four defined stages.
func (s Stage) Valid() bool {
	switch s {
	case StagePending, StageReviewing, StageReport, StageSubmitted:
		return true
	default:
		return false
	}
}

// Next returns the legal successor of s. The second result is false for
// submitted and for unknown stages.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StagePending:
		return StageReviewing, true
	case StageReviewing:
		return StageReport, true
	case StageReport:
		return StageSubmitted, true
	default:
		return "", false
	}
}

// AcceptsChat reports whether a client conversation may be opened.
func (s Stage) AcceptsChat() bool {
	return s == StageSubmitted
}

func (s Stage) String() string {
	return string(s)
}

// Before reports whether s comes earlier than other in workflow order.
// Unknown stages are never before or after anything.
func (s Stage) Before(other Stage) bool {
	i, j := slices.Index(Stages, s), slices.Index(Stages, other)

	return i >= 0 && j >= 0 && i < j
}

// CanTransition reports whether moving from one stage to another is legal.
// Stages only move forward and never skip.
func CanTransition(from, to Stage) bool {
	next, ok := from.Next()

	return ok && next == to
}

// ParseAction converts user input into an Action.
func ParseAction(value string) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := transitions[action]; !ok {
		return "", fmt.Errorf("unknown action %q", value)
	}

	return action, nil
}

// Stages returns the from/to pair the action applies to.
func (a Action) Stages() (from, to Stage, ok bool) {
	pair, ok := transitions[a]
	if !ok {
		return "", "", false
	}

	return pair[0], pair[1], true
}
