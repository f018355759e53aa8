package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/tangram/pkg/filter"
	"github.com/dukex/tangram/pkg/log"
	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

var (
	errActionOrStage = errors.New("exactly one of --action or --stage is required")
	errNotApplied    = errors.New("submission was not changed")
)

func writer(command *cli.Command) io.Writer {
	if w := command.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

func filterCommand() *cli.Command {
	return &cli.Command{
		Name:    "filter",
		Aliases: []string{"ls"},
		Usage:   "List the submissions matching the filter flags",
		Flags:   append([]cli.Flag{snapshotFlag(), outputFlag()}, filterFlags()...),
		Action: func(_ context.Context, command *cli.Command) error {
			submissions, matched, err := loadFiltered(command)
			if err != nil {
				return err
			}

			if command.String("output") == outputJSON {
				return renderJSON(writer(command), matched)
			}

			return renderSubmissions(writer(command), matched, len(submissions))
		},
	}
}

func boardCommand() *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "Group the matching submissions into stage columns",
		Flags: append([]cli.Flag{snapshotFlag(), outputFlag()}, filterFlags()...),
		Action: func(_ context.Context, command *cli.Command) error {
			_, matched, err := loadFiltered(command)
			if err != nil {
				return err
			}

			board := filter.Board(matched)

			if command.String("output") == outputJSON {
				return renderJSON(writer(command), board)
			}

			return renderBoard(writer(command), board)
		},
	}
}

func applyCommand() *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Apply a workflow action or stage move to one submission and save the snapshot",
		Flags: []cli.Flag{
			snapshotFlag(),
			outputFlag(),
			&cli.StringFlag{Name: "id", Usage: "Submission ID", Required: true},
			&cli.StringFlag{Name: "action", Usage: "Workflow action (close, submit, send_report)"},
			&cli.StringFlag{Name: "stage", Usage: "Target stage; must be the next stage"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the result without saving"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.String("file")
			id := command.String("id")

			submissions, err := readSnapshot(path)
			if err != nil {
				return err
			}

			controller := workflow.NewController(log.FromContext(ctx), submissions)

			outcome, err := applyToController(controller, id, command.String("action"), command.String("stage"))
			if err != nil {
				return err
			}

			if !outcome.Applied {
				if _, ok := workflow.Find(submissions, id); !ok {
					return fmt.Errorf("%w: no submission with id %s", errNotApplied, id)
				}

				return fmt.Errorf("%w: %s cannot move on that way", errNotApplied, outcome.From)
			}

			if !command.Bool("dry-run") {
				err = writeSnapshot(path, controller.Submissions())
				if err != nil {
					return err
				}
			}

			updated, _ := workflow.Find(controller.Submissions(), id)

			if command.String("output") == outputJSON {
				return renderJSON(writer(command), map[string]any{
					"submission": updated,
					"outcome":    outcome,
					"chatOpen":   outcome.OpensChat(),
				})
			}

			_, err = fmt.Fprintf(writer(command), "%s: %s -> %s\n", id, outcome.From, outcome.To)

			return err
		},
	}
}

func applyToController(controller *workflow.Controller, id, action, stage string) (workflow.Outcome, error) {
	switch {
	case action != "" && stage == "":
		a, err := models.ParseAction(action)
		if err != nil {
			return workflow.Outcome{}, err
		}

		return controller.Apply(id, a), nil
	case stage != "" && action == "":
		s, err := models.ParseStage(stage)
		if err != nil {
			return workflow.Outcome{}, err
		}

		return controller.MoveTo(id, s), nil
	default:
		return workflow.Outcome{}, errActionOrStage
	}
}

func loadFiltered(command *cli.Command) ([]models.Submission, []models.Submission, error) {
	submissions, err := readSnapshot(command.String("file"))
	if err != nil {
		return nil, nil, err
	}

	state, err := filterStateFromFlags(command)
	if err != nil {
		return nil, nil, err
	}

	engine, err := engineFromFlags(command)
	if err != nil {
		return nil, nil, err
	}

	return submissions, engine.Filter(submissions, state), nil
}
