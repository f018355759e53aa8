package poller

import (
	"strings"
	"time"

	"github.com/dukex/tangram/pkg/models"
)

// remoteSubmission accepts both the dashboard's camelCase records and the
// admin API's snake_case rows. When both spellings are present the
// camelCase value wins.
type remoteSubmission struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Shape    string  `json:"shape"`
	Stage    string  `json:"stage"`
	Status   string  `json:"status"`
	Deadline string  `json:"deadline"`
	Notes    string  `json:"notes"`
	Quantity *int    `json:"quantity"`

	Width  *float64 `json:"width"`
	Depth  *float64 `json:"depth"`
	Height *float64 `json:"height"`
	DimsW  *float64 `json:"dims_w_mm"`
	DimsD  *float64 `json:"dims_d_mm"`
	DimsH  *float64 `json:"dims_h_mm"`

	Company      string `json:"company"`
	CompanyName  string `json:"company_name"`
	ContactName  string `json:"contactName"`
	ContactNameS string `json:"contact_name"`
	Email        string `json:"contactEmail"`
	EmailS       string `json:"contact_email"`

	Recommendation string `json:"recommendation"`
	STLURL         string `json:"stlUrl"`
	STLURLS        string `json:"stl_url"`
	SentToClient   string `json:"sentToClient"`
	SentToClientS  string `json:"sent_to_client"`
	SentMessage    string `json:"sentMessage"`
	SentMessageS   string `json:"sent_message"`
	SentDate       string `json:"sentDate"`
	SentDateS      string `json:"sent_date"`
	CreatedAt      string `json:"createdAt"`
	CreatedAtS     string `json:"created_at"`
}

// remoteStatuses maps the admin API status vocabulary onto stages.
var remoteStatuses = map[string]models.Stage{
	"sent": models.StageSubmitted,
}

func (r remoteSubmission) stage() (models.Stage, error) {
	value := first(r.Stage, r.Status)
	if value == "" {
		return models.StagePending, nil
	}

	if stage, ok := remoteStatuses[strings.ToLower(strings.TrimSpace(value))]; ok {
		return stage, nil
	}

	return models.ParseStage(value)
}

func (r remoteSubmission) submission() (models.Submission, error) {
	stage, err := r.stage()
	if err != nil {
		return models.Submission{}, err
	}

	s := models.Submission{
		ID:             strings.TrimSpace(r.ID),
		Name:           r.Name,
		Shape:          models.Shape(strings.ToLower(r.Shape)),
		Stage:          stage,
		Width:          number(r.Width, r.DimsW),
		Depth:          number(r.Depth, r.DimsD),
		Height:         number(r.Height, r.DimsH),
		Deadline:       r.Deadline,
		Company:        first(r.Company, r.CompanyName),
		ContactName:    first(r.ContactName, r.ContactNameS),
		ContactEmail:   first(r.Email, r.EmailS),
		Notes:          r.Notes,
		Recommendation: r.Recommendation,
		STLURL:         first(r.STLURL, r.STLURLS),
		SentToClient:   first(r.SentToClient, r.SentToClientS),
		SentMessage:    first(r.SentMessage, r.SentMessageS),
	}

	if r.Quantity != nil {
		s.Quantity = *r.Quantity
	}

	// The admin API has no part name; fall back to the label shown on cards.
	if strings.TrimSpace(s.Name) == "" {
		s.Name = models.ClientLabel(s)
	}

	if t, ok := timestamp(first(r.SentDate, r.SentDateS)); ok {
		s.SentDate = &t
	}

	if t, ok := timestamp(first(r.CreatedAt, r.CreatedAtS)); ok {
		s.CreatedAt = t
	}

	return s, nil
}

func first(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

func number(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}

	return 0
}

func timestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}

	return t.UTC(), true
}
