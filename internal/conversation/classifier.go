package conversation

import "strings"

// Action is the side effect a completion asks for.
type Action string

const (
	ActionContinue Action = "continue"
	ActionBook     Action = "book"
	ActionEscalate Action = "escalate"
)

const (
	markerBook     = "[BOOK]"
	markerEscalate = "[ESCALATE]"
	markerContinue = "[CONTINUE]"
)

// Qualification is a best-effort structured summary attached to a Decision.
// It never overrides the action marker.
type Qualification struct {
	ServiceType string `json:"service_type"`
	Urgency     string `json:"urgency"`
}

// Decision is the classified outcome of one model completion. Produced fresh
// per inbound turn and never mutated afterwards.
type Decision struct {
	Action        Action
	Message       string
	Qualification Qualification
}

// Classify parses a raw completion into a Decision. It is total: text with no
// recognizable marker yields a continue action with the text untouched aside
// from trimming. When markers conflict the precedence is escalate > book >
// continue, because handing a confused conversation to a human is the safe
// default.
func Classify(raw string) Decision {
	action := ActionContinue
	switch {
	case strings.Contains(raw, markerEscalate):
		action = ActionEscalate
	case strings.Contains(raw, markerBook):
		action = ActionBook
	}

	message := raw
	for _, marker := range []string{markerEscalate, markerBook, markerContinue} {
		message = strings.ReplaceAll(message, marker, "")
	}

	return Decision{
		Action:  action,
		Message: strings.TrimSpace(message),
	}
}
