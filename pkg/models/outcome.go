package models

// Outcome is the result of one pipeline invocation: either an answer or an
// escalation with a stable reason string. The zero value is an escalation
// with an empty reason and should not be constructed directly.
type Outcome struct {
	Answer    string `json:"answer,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Escalated bool   `json:"escalated"`
}

// Answered wraps an answer text in a successful Outcome.
func Answered(text string) Outcome {
	return Outcome{Answer: text}
}

// Escalate wraps a reason in an escalation Outcome.
func Escalate(reason string) Outcome {
	return Outcome{Reason: reason, Escalated: true}
}

// String renders the outcome in its external wire form: the answer verbatim,
// or "ESCALATE TO SME: <reason>" for escalations.
func (o Outcome) String() string {
	if o.Escalated {
		return "ESCALATE TO SME: " + o.Reason
	}
	return o.Answer
}
