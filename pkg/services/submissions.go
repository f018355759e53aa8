package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukex/tangram/pkg/eventbus"
	"github.com/dukex/tangram/pkg/events"
	"github.com/dukex/tangram/pkg/filter"
	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/otelhelper"
	"github.com/dukex/tangram/pkg/persistence"
	"github.com/dukex/tangram/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Submissions lists, creates and moves submissions through their workflow.
type Submissions struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	engine      *filter.Engine
	tracer      trace.Tracer
	logger      *slog.Logger
	validate    *validator.Validate
	now         func() time.Time

	// mu serializes read-modify-write stage changes within this process.
	mu sync.Mutex
}

// Option configures a Submissions service.
type Option func(*Submissions)

// WithEngine sets the filter engine, and so the default operator policy.
func WithEngine(engine *filter.Engine) Option {
	return func(s *Submissions) {
		s.engine = engine
	}
}

// WithTracer sets the tracer used for filter and transition spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Submissions) {
		s.tracer = tracer
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Submissions) {
		s.now = now
	}
}

// NewSubmissions creates a new submission service. A nil publisher disables events.
func NewSubmissions(
	logger *slog.Logger,
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	opts ...Option,
) *Submissions {
	s := &Submissions{
		persistence: persistence,
		publisher:   publisher,
		engine:      filter.New(),
		tracer:      noop.NewTracerProvider().Tracer("tangram"),
		logger:      logger.With("module", "submissions_service"),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// HealthCheck checks the health of the persistence layer.
func (s *Submissions) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListRequest carries a filter panel state and an optional policy override.
type ListRequest struct {
	Filter models.FilterState
	Policy *filter.Policy
}

// List returns the stored submissions that match the request filter, in storage order.
func (s *Submissions) List(ctx context.Context, req ListRequest) ([]models.Submission, error) {
	engine := s.engine
	if req.Policy != nil {
		engine = filter.New(filter.WithPolicy(*req.Policy))
	}

	criteria := engine.Compile(req.Filter)
	fields := make([]string, 0, len(criteria))

	for _, c := range criteria {
		fields = append(fields, c.Field)
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "submissions.list",
		attribute.String(otelhelper.FilterPolicyKey, engine.Policy().String()),
		attribute.StringSlice(otelhelper.FilterCriteriaKey, fields),
	)
	defer span.End()

	all, err := s.persistence.SubmissionRepository().GetAll(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	result := engine.Filter(all, req.Filter)
	span.SetAttributes(attribute.Int(otelhelper.ResultCountKey, len(result)))

	return result, nil
}

// Board returns the filtered submissions grouped into stage columns.
func (s *Submissions) Board(ctx context.Context, req ListRequest) ([]filter.Column, error) {
	submissions, err := s.List(ctx, req)
	if err != nil {
		return nil, err
	}

	return filter.Board(submissions), nil
}

// Get returns one submission.
func (s *Submissions) Get(ctx context.Context, id string) (*models.Submission, error) {
	submission, err := s.persistence.SubmissionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return submission, nil
}

// Create validates and stores a new submission. New submissions always start
// in pending; an ID is generated when none is given. A caller-supplied ID that
// is already stored is rejected, so an existing record is never replaced.
func (s *Submissions) Create(ctx context.Context, submission *models.Submission, source string) (*models.Submission, error) {
	if submission == nil {
		return nil, NewValidationError("Create", "INVALID_REQUEST", "submission cannot be nil", ErrInvalidRequest)
	}

	if submission.Stage == "" {
		submission.Stage = models.StagePending
	}

	if submission.Stage != models.StagePending {
		return nil, NewValidationError("Create", "INVALID_STAGE",
			fmt.Sprintf("new submissions start in %s, got %s", models.StagePending, submission.Stage), ErrInvalidStage)
	}

	if submission.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate submission ID: %w", err)
		}

		submission.ID = id.String()
	}

	err := s.validate.Struct(submission)
	if err != nil {
		return nil, NewValidationError("Create", "INVALID_SUBMISSION", err.Error(), ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.persistence.SubmissionRepository()

	_, err = repo.GetByID(ctx, submission.ID)

	switch {
	case err == nil:
		return nil, NewConflictError("Create", "submission "+submission.ID+" already exists", ErrSubmissionExists)
	case !persistence.IsSubmissionNotFound(err):
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}

	err = repo.Save(ctx, submission)
	if err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	s.publish(ctx, submission.ID, events.SubmissionCreated{
		BaseEvent: events.NewBaseEvent(events.SubmissionCreatedEvent, submission.ID),
		Name:      submission.Name,
		Company:   submission.Company,
		Source:    source,
	})

	return submission, nil
}

// SyncResult counts what a Sync call changed.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Sync stores a snapshot fetched from the upstream admin API. Upstream is
// authoritative for the content of every record it returns. Stages only move
// forward, so a local stage ahead of the upstream one is kept together with
// its send details. Records that fail validation are skipped and logged.
// Local records missing upstream are kept.
func (s *Submissions) Sync(ctx context.Context, snapshot []models.Submission, source string) (SyncResult, error) {
	var result SyncResult

	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.persistence.SubmissionRepository()

	for i := range snapshot {
		incoming := snapshot[i]

		err := s.validate.Struct(incoming)
		if err != nil || incoming.ID == "" {
			s.logger.WarnContext(ctx, "skipping invalid upstream submission", "submission_id", incoming.ID, "error", err)
			result.Skipped++

			continue
		}

		existing, err := repo.GetByID(ctx, incoming.ID)

		switch {
		case persistence.IsSubmissionNotFound(err):
			existing = nil
		case err != nil:
			return result, fmt.Errorf("failed to load submission %s: %w", incoming.ID, err)
		}

		if existing != nil && incoming.Stage.Before(existing.Stage) {
			s.logger.DebugContext(ctx, "keeping local stage ahead of upstream",
				"submission_id", incoming.ID,
				"local", existing.Stage,
				"upstream", incoming.Stage)

			keepLocalProgress(&incoming, *existing)
		}

		if existing != nil && sameContent(*existing, incoming) {
			continue
		}

		if existing != nil {
			incoming.CreatedAt = existing.CreatedAt
		}

		err = repo.Save(ctx, &incoming)
		if err != nil {
			return result, fmt.Errorf("failed to save submission %s: %w", incoming.ID, err)
		}

		if existing == nil {
			result.Created++

			s.publish(ctx, incoming.ID, events.SubmissionCreated{
				BaseEvent: events.NewBaseEvent(events.SubmissionCreatedEvent, incoming.ID),
				Name:      incoming.Name,
				Company:   incoming.Company,
				Source:    source,
			})

			continue
		}

		result.Updated++

		if existing.Stage != incoming.Stage {
			s.publish(ctx, incoming.ID, events.SubmissionStageChanged{
				BaseEvent: events.NewBaseEvent(events.SubmissionStageChangedEvent, incoming.ID),
				From:      existing.Stage,
				To:        incoming.Stage,
			})
		}
	}

	return result, nil
}

// Transition moves a submission to stage. Only the legal successor of the
// current stage is accepted.
func (s *Submissions) Transition(ctx context.Context, id string, stage models.Stage) (*models.Submission, workflow.Outcome, error) {
	if !stage.Valid() {
		return nil, workflow.Outcome{}, NewValidationError("Transition", "INVALID_STAGE",
			fmt.Sprintf("unknown stage %q", stage), ErrInvalidStage)
	}

	return s.change(ctx, id, "", func(c *workflow.Controller) workflow.Outcome {
		return c.MoveTo(id, stage)
	})
}

// Apply performs a named workflow action on a submission.
func (s *Submissions) Apply(ctx context.Context, id string, action models.Action) (*models.Submission, workflow.Outcome, error) {
	if _, _, ok := action.Stages(); !ok {
		return nil, workflow.Outcome{}, NewValidationError("Apply", "INVALID_ACTION",
			fmt.Sprintf("unknown action %q", action), ErrInvalidAction)
	}

	return s.change(ctx, id, action, func(c *workflow.Controller) workflow.Outcome {
		return c.Apply(id, action)
	})
}

// SendToClient records the report hand-off, moves the submission to
// submitted and logs the sent message in the client conversation.
func (s *Submissions) SendToClient(ctx context.Context, id string, details workflow.SendDetails) (*models.Submission, workflow.Outcome, error) {
	details.SentToClient = strings.TrimSpace(details.SentToClient)
	details.SentMessage = strings.TrimSpace(details.SentMessage)

	err := s.validate.Struct(details)
	if err != nil {
		return nil, workflow.Outcome{}, NewValidationError("SendToClient", "INVALID_SEND", err.Error(), ErrInvalidRequest)
	}

	now := s.now()

	submission, outcome, err := s.change(ctx, id, models.ActionSendReport, func(c *workflow.Controller) workflow.Outcome {
		return c.Send(id, details, now)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, outcome, NewConflictError("SendToClient", "submission "+id+" was already sent", ErrAlreadySubmitted)
		}

		return nil, outcome, err
	}

	message := &models.Message{
		ID:           uuid.NewString(),
		SubmissionID: id,
		Body:         details.SentMessage,
		Direction:    models.DirectionOutbound,
		CreatedAt:    now.UTC(),
	}

	err = s.persistence.MessageRepository().Save(ctx, message)
	if err != nil {
		return nil, outcome, fmt.Errorf("failed to record sent message: %w", err)
	}

	s.publish(ctx, id, events.SubmissionSubmitted{
		BaseEvent:    events.NewBaseEvent(events.SubmissionSubmittedEvent, id),
		SentToClient: submission.SentToClient,
		SentDate:     submission.SentDate,
	})

	return submission, outcome, nil
}

// change loads the submission, lets the workflow controller decide, and
// stores the result when the controller applied it.
func (s *Submissions) change(
	ctx context.Context,
	id string,
	action models.Action,
	apply func(*workflow.Controller) workflow.Outcome,
) (*models.Submission, workflow.Outcome, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "submissions.transition",
		attribute.String(otelhelper.SubmissionIDKey, id),
		attribute.String(otelhelper.ActionKey, string(action)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.persistence.SubmissionRepository()

	current, err := repo.GetByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, workflow.Outcome{}, fmt.Errorf("failed to get submission: %w", err)
	}

	controller := workflow.NewController(s.logger, []models.Submission{*current})
	outcome := apply(controller)

	span.SetAttributes(
		attribute.String(otelhelper.StageFromKey, string(outcome.From)),
		attribute.String(otelhelper.StageToKey, string(outcome.To)),
	)

	if !outcome.Applied {
		err := NewConflictError("Transition",
			fmt.Sprintf("submission %s cannot move on from %s", id, current.Stage), ErrInvalidTransition)
		otelhelper.SetError(span, err)

		return nil, outcome, err
	}

	updated, _ := workflow.Find(controller.Submissions(), id)

	err = repo.Save(ctx, &updated)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, outcome, fmt.Errorf("failed to save submission: %w", err)
	}

	s.publish(ctx, id, events.SubmissionStageChanged{
		BaseEvent: events.NewBaseEvent(events.SubmissionStageChangedEvent, id),
		From:      outcome.From,
		To:        outcome.To,
		Action:    action,
	})

	return &updated, outcome, nil
}

// publish emits an event. The change it describes is already stored, so a
// failure is logged and not returned.
func (s *Submissions) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, key, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "event_type", event.GetType(), "submission_id", key, "error", err)
	}
}

// keepLocalProgress carries the local stage and send details over an older
// upstream copy.
func keepLocalProgress(incoming *models.Submission, local models.Submission) {
	incoming.Stage = local.Stage

	if incoming.SentToClient == "" {
		incoming.SentToClient = local.SentToClient
	}

	if incoming.SentMessage == "" {
		incoming.SentMessage = local.SentMessage
	}

	if incoming.SentDate == nil {
		incoming.SentDate = local.SentDate
	}

	if incoming.Recommendation == "" {
		incoming.Recommendation = local.Recommendation
	}
}

// sameContent compares two submissions ignoring storage timestamps.
func sameContent(a, b models.Submission) bool {
	if (a.SentDate == nil) != (b.SentDate == nil) {
		return false
	}

	if a.SentDate != nil && !a.SentDate.Equal(*b.SentDate) {
		return false
	}

	a.SentDate, b.SentDate = nil, nil
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}

	return a == b
}
