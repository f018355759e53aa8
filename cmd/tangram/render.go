package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dukex/tangram/pkg/filter"
	"github.com/dukex/tangram/pkg/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

var stageColors = map[models.Stage]text.Colors{
	models.StagePending:   {text.FgYellow},
	models.StageReviewing: {text.FgBlue},
	models.StageReport:    {text.FgMagenta},
	models.StageSubmitted: {text.FgGreen},
}

var submissionHeaders = table.Row{"ID", "Client", "Stage", "W x D x H (mm)", "Qty", "Deadline"}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}

	fd := file.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderStage(stage models.Stage, colorize bool) string {
	if !colorize {
		return string(stage)
	}

	return stageColors[stage].Sprint(string(stage))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func submissionRow(s models.Submission, colorize bool) table.Row {
	dims := strings.Join([]string{formatNumber(s.Width), formatNumber(s.Depth), formatNumber(s.Height)}, " x ")

	return table.Row{s.ID, models.ClientLabel(s), renderStage(s.Stage, colorize), dims, s.Quantity, s.Deadline}
}

func newTable() table.Writer {
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault

	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw
}

func renderSubmissions(w io.Writer, submissions []models.Submission, total int) error {
	colorize := shouldColorize(w)

	tw := newTable()
	tw.AppendHeader(submissionHeaders)

	for _, s := range submissions {
		tw.AppendRow(submissionRow(s, colorize))
	}

	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d", len(submissions), total)})

	_, err := fmt.Fprintln(w, tw.Render())

	return err
}

func renderBoard(w io.Writer, board []filter.Column) error {
	colorize := shouldColorize(w)

	for i, column := range board {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		title := fmt.Sprintf("%s (%d)", renderStage(column.Stage, colorize), len(column.Submissions))

		tw := newTable()
		tw.SetTitle(title)
		tw.AppendHeader(submissionHeaders)

		for _, s := range column.Submissions {
			tw.AppendRow(submissionRow(s, colorize))
		}

		if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
			return err
		}
	}

	return nil
}

func renderJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
