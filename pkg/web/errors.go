package web

import (
	"github.com/dukex/tangram/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func invalidFilter(err error) error {
	return services.NewValidationError("ListSubmissions", "INVALID_FILTER",
		"invalid query parameters: "+err.Error(), services.ErrInvalidFilter)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case services.IsNotFoundError(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("submission_not_found").
			WithDetail("submission not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
