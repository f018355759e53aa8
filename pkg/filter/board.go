package filter

import "github.com/dukex/tangram/pkg/models"

// Column is one stage column of the dashboard board.
type Column struct {
	Stage       models.Stage        `json:"stage"`
	Submissions []models.Submission `json:"submissions"`
}

// Board groups submissions into one column per stage in workflow order.
// Order within a column follows the input. Records with an unknown stage
// are left out.
func Board(submissions []models.Submission) []Column {
	columns := make([]Column, len(models.Stages))
	index := make(map[models.Stage]int, len(models.Stages))

	for i, stage := range models.Stages {
		columns[i] = Column{Stage: stage, Submissions: []models.Submission{}}
		index[stage] = i
	}

	for _, s := range submissions {
		if i, ok := index[s.Stage]; ok {
			columns[i].Submissions = append(columns[i].Submissions, s)
		}
	}

	return columns
}
