package models

// Difficulty classifies how hard a question is to answer safely.
type Difficulty string

const (
	DifficultyBasic    Difficulty = "basic"
	DifficultyAdvanced Difficulty = "advanced"
)

// Question is a single inbound student question with its syllabus scope.
type Question struct {
	Text    string `json:"question"`
	Subject string `json:"subject"`
	Chapter string `json:"chapter"`
}

// IdentifiedContext is a Question enriched with a difficulty classification.
// It lives for exactly one pipeline invocation and is never shared.
type IdentifiedContext struct {
	Question         string
	Subject          string
	Chapter          string
	Difficulty       Difficulty
	EscalationReason string
}
