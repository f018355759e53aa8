package web

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dukex/tangram/pkg/filter"
	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/services"
	"github.com/gofiber/fiber/v3"
)

// parseListRequest reads the filter panel state from the query string.
// Numeric values are passed through untouched so that malformed numbers
// reach the engine and are treated as inactive there, the same way the
// dashboard behaves. Dates, stages and the policy are strict.
func parseListRequest(c fiber.Ctx) (services.ListRequest, error) {
	state := models.FilterState{
		WidthOperator:    models.Operator(c.Query("widthOperator")),
		WidthValue:       c.Query("widthValue"),
		DepthOperator:    models.Operator(c.Query("depthOperator")),
		DepthValue:       c.Query("depthValue"),
		HeightOperator:   models.Operator(c.Query("heightOperator")),
		HeightValue:      c.Query("heightValue"),
		QuantityOperator: models.Operator(c.Query("quantityOperator")),
		QuantityValue:    c.Query("quantityValue"),
		DeadlineOperator: models.Operator(c.Query("deadlineOperator")),
		Company:          c.Query("company"),
		ContactName:      c.Query("contactName"),
		ContactEmail:     c.Query("contactEmail"),
	}

	var err error

	state.StartDate, err = parseQueryDate(c.Query("startDate"))
	if err != nil {
		return services.ListRequest{}, fmt.Errorf("startDate: %w", err)
	}

	state.EndDate, err = parseQueryDate(c.Query("endDate"))
	if err != nil {
		return services.ListRequest{}, fmt.Errorf("endDate: %w", err)
	}

	for _, raw := range c.Request().URI().QueryArgs().PeekMulti("status") {
		for _, value := range strings.Split(string(raw), ",") {
			if strings.TrimSpace(value) == "" {
				continue
			}

			stage, err := models.ParseStage(value)
			if err != nil {
				return services.ListRequest{}, fmt.Errorf("status: %w", err)
			}

			if !slices.Contains(state.SelectedStatuses, stage) {
				state = state.ToggleStatus(stage)
			}
		}
	}

	req := services.ListRequest{Filter: state}

	if raw := c.Query("policy"); raw != "" {
		policy, err := filter.ParsePolicy(raw)
		if err != nil {
			return services.ListRequest{}, fmt.Errorf("policy: %w", err)
		}

		req.Policy = &policy
	}

	return req, nil
}

func parseQueryDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	t, err := models.ParseDate(value)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
