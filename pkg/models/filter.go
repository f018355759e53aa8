package models

import "time"

// Operator is a comparison operator selected in the filter panel.
type Operator string

const (
	OperatorLess         Operator = "<"
	OperatorGreater      Operator = ">"
	OperatorLessEqual    Operator = "<="
	OperatorGreaterEqual Operator = ">="
	OperatorEqual        Operator = "="
)

// Known reports whether o is one of the five supported operators.
func (o Operator) Known() bool {
	switch o {
	case OperatorLess, OperatorGreater, OperatorLessEqual, OperatorGreaterEqual, OperatorEqual:
		return true
	default:
		return false
	}
}

// FilterState is a snapshot of the criteria selected in the filter panel.
// Empty values and nil dates leave the matching criterion inactive.
type FilterState struct {
	WidthOperator    Operator `json:"widthOperator"`
	WidthValue       string   `json:"widthValue"`
	DepthOperator    Operator `json:"depthOperator"`
	DepthValue       string   `json:"depthValue"`
	HeightOperator   Operator `json:"heightOperator"`
	HeightValue      string   `json:"heightValue"`
	QuantityOperator Operator `json:"quantityOperator"`
	QuantityValue    string   `json:"quantityValue"`

	DeadlineOperator Operator   `json:"deadlineOperator"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`

	Company      string `json:"company"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`

	SelectedStatuses []Stage `json:"selectedStatuses"`
}

// IsZero reports whether no criterion is set.
func (f FilterState) IsZero() bool {
	return f.WidthValue == "" &&
		f.DepthValue == "" &&
		f.HeightValue == "" &&
		f.QuantityValue == "" &&
		f.StartDate == nil &&
		f.EndDate == nil &&
		f.Company == "" &&
		f.ContactName == "" &&
		f.ContactEmail == "" &&
		len(f.SelectedStatuses) == 0
}

// ToggleStatus returns a copy of f with the stage added to or removed from
// the selected statuses.
func (f FilterState) ToggleStatus(stage Stage) FilterState {
	statuses := make([]Stage, 0, len(f.SelectedStatuses)+1)
	found := false

	for _, s := range f.SelectedStatuses {
		if s == stage {
			found = true

			continue
		}

		statuses = append(statuses, s)
	}

	if !found {
		statuses = append(statuses, stage)
	}

	f.SelectedStatuses = statuses

	return f
}
