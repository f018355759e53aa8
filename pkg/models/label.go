package models

import "strings"

type labelSource struct {
	field   string
	extract func(Submission) string
}

// labelSources is tried in order; the first non-blank value wins.
var labelSources = []labelSource{
	{field: "contactName", extract: func(s Submission) string { return s.ContactName }},
	{field: "company", extract: func(s Submission) string { return s.Company }},
	{field: "name", extract: func(s Submission) string { return s.Name }},
}

// ClientLabel returns the name shown for a submission's client.
func ClientLabel(s Submission) string {
	label, _ := ResolveClientLabel(s)

	return label
}

// ResolveClientLabel returns the client label and the field it came from.
// The field is "id" when no named field is set.
func ResolveClientLabel(s Submission) (string, string) {
	for _, source := range labelSources {
		if v := strings.TrimSpace(source.extract(s)); v != "" {
			return v, source.field
		}
	}

	return "Case " + s.ID, "id"
}
