package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dukex/tangram/pkg/filter"
	"github.com/dukex/tangram/pkg/models"
	cli "github.com/urfave/cli/v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func snapshotFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Snapshot file holding a JSON array of submissions",
		Required: true,
		Sources:  cli.EnvVars("TANGRAM_SNAPSHOT"),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format (table, json)",
		Value:   outputTable,
	}
}

// filterFlags mirror the dashboard's filter panel.
func filterFlags() []cli.Flag {
	flags := []cli.Flag{}

	for _, field := range []string{"width", "depth", "height", "quantity"} {
		flags = append(flags,
			&cli.StringFlag{Name: field + "-operator", Usage: "Comparison for " + field + " (=, <, >, <=, >=)"},
			&cli.StringFlag{Name: field + "-value", Usage: "Value " + field + " is compared against"},
		)
	}

	return append(flags,
		&cli.StringFlag{Name: "deadline-operator", Usage: "Comparison of the deadline against --start-date"},
		&cli.StringFlag{Name: "start-date", Usage: "Start date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "end-date", Usage: "End date (YYYY-MM-DD), inclusive"},
		&cli.StringFlag{Name: "company", Usage: "Case-insensitive company substring"},
		&cli.StringFlag{Name: "contact-name", Usage: "Case-insensitive contact name substring"},
		&cli.StringFlag{Name: "contact-email", Usage: "Case-insensitive contact email substring"},
		&cli.StringSliceFlag{Name: "status", Usage: "Stage to keep; repeat or comma separate for several"},
		&cli.StringFlag{
			Name:    "policy",
			Usage:   "How unknown operators behave (fail-open, fail-closed)",
			Value:   filter.PolicyFailOpen.String(),
			Sources: cli.EnvVars("FILTER_POLICY"),
		},
	)
}

func filterStateFromFlags(command *cli.Command) (models.FilterState, error) {
	state := models.FilterState{
		WidthOperator:    models.Operator(command.String("width-operator")),
		WidthValue:       command.String("width-value"),
		DepthOperator:    models.Operator(command.String("depth-operator")),
		DepthValue:       command.String("depth-value"),
		HeightOperator:   models.Operator(command.String("height-operator")),
		HeightValue:      command.String("height-value"),
		QuantityOperator: models.Operator(command.String("quantity-operator")),
		QuantityValue:    command.String("quantity-value"),
		DeadlineOperator: models.Operator(command.String("deadline-operator")),
		Company:          command.String("company"),
		ContactName:      command.String("contact-name"),
		ContactEmail:     command.String("contact-email"),
	}

	var err error

	state.StartDate, err = optionalDate(command.String("start-date"))
	if err != nil {
		return state, fmt.Errorf("--start-date: %w", err)
	}

	state.EndDate, err = optionalDate(command.String("end-date"))
	if err != nil {
		return state, fmt.Errorf("--end-date: %w", err)
	}

	for _, raw := range command.StringSlice("status") {
		for _, value := range strings.Split(raw, ",") {
			if strings.TrimSpace(value) == "" {
				continue
			}

			stage, err := models.ParseStage(value)
			if err != nil {
				return state, fmt.Errorf("--status: %w", err)
			}

			if !slices.Contains(state.SelectedStatuses, stage) {
				state = state.ToggleStatus(stage)
			}
		}
	}

	return state, nil
}

func engineFromFlags(command *cli.Command) (*filter.Engine, error) {
	policy, err := filter.ParsePolicy(command.String("policy"))
	if err != nil {
		return nil, err
	}

	return filter.New(filter.WithPolicy(policy)), nil
}

func optionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	t, err := models.ParseDate(value)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
