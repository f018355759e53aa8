// Package filter evaluates filter panel criteria against submission snapshots.
//
// A FilterState is compiled into a list of independent criteria, one per
// active field, and a submission matches when every criterion accepts it.
// Inactive fields (empty values, unparseable numbers, missing dates) are
// skipped rather than failed. Filtering never reorders or mutates its input.
package filter

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/tangram/pkg/models"
)

// Criterion accepts or rejects a single submission.
type Criterion struct {
	Field string
	Match func(models.Submission) bool
}

// Engine evaluates filter states under a fixed operator policy.
type Engine struct {
	policy Policy
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets how unknown operators are treated.
func WithPolicy(policy Policy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// New creates an Engine. The default policy is PolicyFailOpen.
func New(opts ...Option) *Engine {
	e := &Engine{policy: PolicyFailOpen}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Policy returns the engine's operator policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Filter returns the submissions that satisfy every active criterion in
// state, in their original order. The result is a new slice.
func (e *Engine) Filter(submissions []models.Submission, state models.FilterState) []models.Submission {
	out := make([]models.Submission, 0, len(submissions))
	if state.IsZero() {
		return append(out, submissions...)
	}

	criteria := e.Compile(state)

	for _, submission := range submissions {
		if matchAll(criteria, submission) {
			out = append(out, submission)
		}
	}

	return out
}

// Match reports whether a single submission satisfies state.
func (e *Engine) Match(submission models.Submission, state models.FilterState) bool {
	return matchAll(e.Compile(state), submission)
}

// Compile turns the active fields of state into criteria.
func (e *Engine) Compile(state models.FilterState) []Criterion {
	var criteria []Criterion

	numeric := []struct {
		field   string
		op      models.Operator
		value   string
		extract func(models.Submission) float64
	}{
		{"width", state.WidthOperator, state.WidthValue, func(s models.Submission) float64 { return s.Width }},
		{"depth", state.DepthOperator, state.DepthValue, func(s models.Submission) float64 { return s.Depth }},
		{"height", state.HeightOperator, state.HeightValue, func(s models.Submission) float64 { return s.Height }},
		{"quantity", state.QuantityOperator, state.QuantityValue, func(s models.Submission) float64 { return float64(s.Quantity) }},
	}

	for _, n := range numeric {
		if c, ok := e.numberCriterion(n.field, n.op, n.value, n.extract); ok {
			criteria = append(criteria, c)
		}
	}

	if c, ok := e.deadlineCriterion(state); ok {
		criteria = append(criteria, c)
	}

	text := []struct {
		field   string
		needle  string
		extract func(models.Submission) string
	}{
		{"company", state.Company, func(s models.Submission) string { return s.Company }},
		{"contactName", state.ContactName, func(s models.Submission) string { return s.ContactName }},
		{"contactEmail", state.ContactEmail, func(s models.Submission) string { return s.ContactEmail }},
	}

	for _, t := range text {
		if c, ok := textCriterion(t.field, t.needle, t.extract); ok {
			criteria = append(criteria, c)
		}
	}

	if len(state.SelectedStatuses) > 0 {
		statuses := slices.Clone(state.SelectedStatuses)
		criteria = append(criteria, Criterion{
			Field: "status",
			Match: func(s models.Submission) bool {
				return slices.Contains(statuses, s.Stage)
			},
		})
	}

	return criteria
}

func (e *Engine) numberCriterion(
	field string,
	op models.Operator,
	value string,
	extract func(models.Submission) float64,
) (Criterion, bool) {
	if value == "" || op == "" || !e.applies(op) {
		return Criterion{}, false
	}

	target, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(target) {
		return Criterion{}, false
	}

	policy := e.policy

	return Criterion{
		Field: field,
		Match: func(s models.Submission) bool {
			return compareNumber(extract(s), target, op, policy)
		},
	}, true
}

// deadlineCriterion combines the operator comparison against the start date
// with the inclusive start/end range. Each part applies only when its inputs
// are present; a deadline that does not parse fails any active part.
func (e *Engine) deadlineCriterion(state models.FilterState) (Criterion, bool) {
	compare := state.StartDate != nil && state.DeadlineOperator != "" && e.applies(state.DeadlineOperator)
	bounded := state.StartDate != nil && state.EndDate != nil

	if !compare && !bounded {
		return Criterion{}, false
	}

	start, end := *state.StartDate, state.EndDate
	op, policy := state.DeadlineOperator, e.policy

	return Criterion{
		Field: "deadline",
		Match: func(s models.Submission) bool {
			deadline, err := s.DeadlineDate()
			if err != nil {
				return false
			}

			if compare && !compareDate(deadline, start, op, policy) {
				return false
			}

			if bounded && !withinRange(deadline, start, *end) {
				return false
			}

			return true
		},
	}, true
}

// applies reports whether a criterion using op restricts anything. Under
// the fail-open policy an unknown operator accepts every record, so it is
// not compiled at all.
func (e *Engine) applies(op models.Operator) bool {
	return op.Known() || !e.policy.unknown()
}

func textCriterion(field, needle string, extract func(models.Submission) string) (Criterion, bool) {
	if needle == "" {
		return Criterion{}, false
	}

	lowered := strings.ToLower(needle)

	return Criterion{
		Field: field,
		Match: func(s models.Submission) bool {
			return strings.Contains(strings.ToLower(extract(s)), lowered)
		},
	}, true
}

func matchAll(criteria []Criterion, submission models.Submission) bool {
	for _, c := range criteria {
		if !c.Match(submission) {
			return false
		}
	}

	return true
}

var defaultEngine = New()

// Filter applies state to submissions with the fail-open policy.
func Filter(submissions []models.Submission, state models.FilterState) []models.Submission {
	return defaultEngine.Filter(submissions, state)
}
