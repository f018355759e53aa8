// Package web provides the HTTP handlers of the submissions dashboard API.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	submissions *services.Submissions
	messages    *services.Messages
	validator   *validator.Validate
}

func NewAPIHandlers(
	submissions *services.Submissions,
	messages *services.Messages,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		submissions: submissions,
		messages:    messages,
		validator:   validator,
	}
}

// Register mounts every submission and message route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	s := router.Group("/submissions")
	s.Get("/", h.ListSubmissions)
	s.Post("/", h.CreateSubmission)
	s.Get("/board", h.GetBoard)
	s.Get("/:id", h.GetSubmission)
	s.Patch("/:id", h.UpdateStage)
	s.Post("/:id/actions/:action", h.ApplyAction)
	s.Post("/:id/send", h.SendToClient)
	s.Get("/:id/messages", h.GetConversation)
	s.Post("/:id/messages", h.PostMessage)

	router.Get("/messages", h.GetMessageLog)
	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) ListSubmissions(c fiber.Ctx) error {
	req, err := parseListRequest(c)
	if err != nil {
		return handleServiceError(c, invalidFilter(err))
	}

	submissions, err := h.submissions.List(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"submissions": NewSubmissionResponses(submissions),
		"total_count": len(submissions),
	})
}

func (h *APIHandlers) GetBoard(c fiber.Ctx) error {
	req, err := parseListRequest(c)
	if err != nil {
		return handleServiceError(c, invalidFilter(err))
	}

	board, err := h.submissions.Board(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	columns := make([]ColumnResponse, 0, len(board))
	for _, column := range board {
		columns = append(columns, ColumnResponse{
			Stage:       column.Stage,
			Count:       len(column.Submissions),
			Submissions: NewSubmissionResponses(column.Submissions),
		})
	}

	return c.JSON(fiber.Map{"columns": columns})
}

func (h *APIHandlers) GetSubmission(c fiber.Ctx) error {
	submission, err := h.submissions.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(NewSubmissionResponse(*submission))
}

func (h *APIHandlers) CreateSubmission(c fiber.Ctx) error {
	var req CreateSubmissionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.submissions.Create(c.Context(), req.Submission(), "api")
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(NewSubmissionResponse(*created))
}

func (h *APIHandlers) UpdateStage(c fiber.Ctx) error {
	var req UpdateStageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	stage, err := models.ParseStage(req.Stage)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, outcome, err := h.submissions.Transition(c.Context(), c.Params("id"), stage)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransitionResponse{
		Submission: NewSubmissionResponse(*updated),
		Outcome:    outcome,
		ChatOpen:   outcome.OpensChat(),
	})
}

func (h *APIHandlers) ApplyAction(c fiber.Ctx) error {
	action, err := models.ParseAction(c.Params("action"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, outcome, err := h.submissions.Apply(c.Context(), c.Params("id"), action)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransitionResponse{
		Submission: NewSubmissionResponse(*updated),
		Outcome:    outcome,
		ChatOpen:   outcome.OpensChat(),
	})
}

func (h *APIHandlers) SendToClient(c fiber.Ctx) error {
	var req SendToClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, outcome, err := h.submissions.SendToClient(c.Context(), c.Params("id"), req.Details())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransitionResponse{
		Submission: NewSubmissionResponse(*updated),
		Outcome:    outcome,
		ChatOpen:   outcome.OpensChat(),
	})
}

func (h *APIHandlers) GetConversation(c fiber.Ctx) error {
	messages, err := h.messages.Conversation(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *APIHandlers) PostMessage(c fiber.Ctx) error {
	var req PostMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	message, err := h.messages.Post(c.Context(), c.Params("id"), req.Body, req.Direction)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

func (h *APIHandlers) GetMessageLog(c fiber.Ctx) error {
	messages, err := h.messages.Log(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.submissions.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Tangram API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Tangram API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
