package models

// SyllabusDocument is one ingestable syllabus passage scoped to a subject
// and chapter. ID is the idempotency key for ingestion.
type SyllabusDocument struct {
	ID      string `json:"id" yaml:"id"`
	Subject string `json:"subject" yaml:"subject"`
	Chapter string `json:"chapter" yaml:"chapter"`
	Text    string `json:"text" yaml:"text"`
}
