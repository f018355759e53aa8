package web

import (
	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/workflow"
)

// CreateSubmissionRequest represents the request body for creating a new submission.
type CreateSubmissionRequest struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"         validate:"required"`
	Shape        models.Shape `json:"shape"        validate:"omitempty,oneof=triangle square circle"`
	Width        float64      `json:"width"        validate:"gte=0"`
	Depth        float64      `json:"depth"        validate:"gte=0"`
	Height       float64      `json:"height"       validate:"gte=0"`
	Quantity     int          `json:"quantity"     validate:"gte=0"`
	Deadline     string       `json:"deadline"`
	Company      string       `json:"company"`
	ContactName  string       `json:"contactName"`
	ContactEmail string       `json:"contactEmail" validate:"omitempty,email"`
	Notes        string       `json:"notes"`
	STLURL       string       `json:"stlUrl"       validate:"omitempty,url"`
}

// Submission converts the request into a pending submission.
func (r CreateSubmissionRequest) Submission() *models.Submission {
	return &models.Submission{
		ID:           r.ID,
		Name:         r.Name,
		Shape:        r.Shape,
		Stage:        models.StagePending,
		Width:        r.Width,
		Depth:        r.Depth,
		Height:       r.Height,
		Quantity:     r.Quantity,
		Deadline:     r.Deadline,
		Company:      r.Company,
		ContactName:  r.ContactName,
		ContactEmail: r.ContactEmail,
		Notes:        r.Notes,
		STLURL:       r.STLURL,
	}
}

// UpdateStageRequest represents the request body for moving a submission to another stage.
type UpdateStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// SendToClientRequest represents the request body of the send-to-client action.
type SendToClientRequest struct {
	SentToClient   string `json:"sentToClient"   validate:"required"`
	SentMessage    string `json:"sentMessage"    validate:"required"`
	Recommendation string `json:"recommendation"`
}

// Details converts the request into workflow send details.
func (r SendToClientRequest) Details() workflow.SendDetails {
	return workflow.SendDetails{
		SentToClient:   r.SentToClient,
		SentMessage:    r.SentMessage,
		Recommendation: r.Recommendation,
	}
}

// PostMessageRequest represents the request body for a new conversation message.
type PostMessageRequest struct {
	Body      string                  `json:"body"      validate:"required"`
	Direction models.MessageDirection `json:"direction" validate:"omitempty,oneof=outbound inbound"`
}

// SubmissionResponse wraps a submission with the client label shown on cards.
type SubmissionResponse struct {
	models.Submission

	ClientLabel string `json:"clientLabel"`
}

// TransitionResponse is returned by every stage-changing endpoint.
type TransitionResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Outcome    workflow.Outcome   `json:"outcome"`
	ChatOpen   bool               `json:"chatOpen"`
}

// ColumnResponse is one stage column of the board.
type ColumnResponse struct {
	Stage       models.Stage         `json:"stage"`
	Count       int                  `json:"count"`
	Submissions []SubmissionResponse `json:"submissions"`
}

// NewSubmissionResponse adds presentation fields to a submission.
func NewSubmissionResponse(s models.Submission) SubmissionResponse {
	return SubmissionResponse{
		Submission:  s,
		ClientLabel: models.ClientLabel(s),
	}
}

// NewSubmissionResponses converts a snapshot, keeping order.
func NewSubmissionResponses(submissions []models.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(submissions))
	for _, s := range submissions {
		out = append(out, NewSubmissionResponse(s))
	}

	return out
}
