package filter

import (
	"fmt"
	"strings"
)

// Policy decides what an unrecognized comparison operator does to a record.
type Policy int

const (
	// PolicyFailOpen lets the record through when the operator is unknown.
	PolicyFailOpen Policy = iota
	// PolicyFailClosed excludes the record when the operator is unknown.
	PolicyFailClosed
)

// ParsePolicy converts a flag or query value into a Policy. An empty value
// selects PolicyFailOpen.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "fail-open", "open":
		return PolicyFailOpen, nil
	case "fail-closed", "closed":
		return PolicyFailClosed, nil
	default:
		return PolicyFailOpen, fmt.Errorf("unknown filter policy %q", value)
	}
}

func (p Policy) String() string {
	if p == PolicyFailClosed {
		return "fail-closed"
	}

	return "fail-open"
}

// unknown is the result of a comparison with an unrecognized operator.
func (p Policy) unknown() bool {
	return p == PolicyFailOpen
}
