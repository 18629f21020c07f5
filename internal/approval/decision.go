package approval

import "strings"

// Decision is the outcome of interpreting a user reply against the
// approval vocabulary. Matched reports whether the text was a decision at
// all; non-decision text falls through to normal message handling.
type Decision struct {
	Matched  bool
	Approved bool
	Reason   string
}

var approveWords = map[string]bool{
	"approve":     true,
	"approve all": true,
	"yes":         true,
	"y":           true,
	"ok":          true,
	"okay":        true,
	"allow":       true,
	"run":         true,
	"go ahead":    true,
}

var denyWords = map[string]bool{
	"deny":     true,
	"deny all": true,
	"no":       true,
	"n":        true,
	"reject":   true,
	"stop":     true,
	"cancel":   true,
}

// ParseDecision matches trimmed, lowercased text against the decision
// vocabulary. Matching is exact: "yes please" is not a decision. A denial
// keeps the matched text as the reason reported back to the agent.
func ParseDecision(text string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if approveWords[normalized] {
		return Decision{Matched: true, Approved: true}
	}
	if denyWords[normalized] {
		return Decision{Matched: true, Approved: false, Reason: normalized}
	}
	return Decision{}
}
