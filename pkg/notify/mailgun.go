package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/curionest/curionest/pkg/config"
)

const defaultTimeout = 5 * time.Second

// Notifier delivers an escalation notice to a human subject-matter expert.
// Delivery failures never affect the outcome already computed by the
// pipeline; callers log and swallow them.
type Notifier interface {
	Notify(ctx context.Context, subjectLine, body string) error
}

// EscalationSubject builds the mail subject line for an escalated question.
func EscalationSubject(subject, chapter string) string {
	return fmt.Sprintf("CurioNest Escalation | %s - %s", subject, chapter)
}

// EscalationBody builds the deterministic escalation message embedding the
// original question, its scope, and the engine decision.
func EscalationBody(question, subject, chapter, decision string) string {
	return fmt.Sprintf(
		"Student Question:\n%s\n\nContext:\nSubject: %s\nChapter: %s\n\nEngine Decision:\n%s\n",
		question, subject, chapter, decision,
	)
}

// Mailgun is a Notifier that posts messages through the Mailgun HTTP API.
type Mailgun struct {
	httpClient   *http.Client
	baseURL      string
	domain       string
	apiKey       string
	from         string
	teacherEmail string
}

// NewMailgun creates a Mailgun notifier from configuration.
func NewMailgun(cfg config.NotifyConfig) *Mailgun {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	from := cfg.From
	if from == "" {
		from = fmt.Sprintf("CurioNest <postmaster@%s>", cfg.Domain)
	}
	return &Mailgun{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		domain:       cfg.Domain,
		apiKey:       cfg.APIKey,
		from:         from,
		teacherEmail: cfg.TeacherEmail,
	}
}

// Notify sends one escalation mail to the configured teacher address.
func (m *Mailgun) Notify(ctx context.Context, subjectLine, body string) error {
	form := url.Values{}
	form.Set("from", m.from)
	form.Set("to", m.teacherEmail)
	form.Set("subject", subjectLine)
	form.Set("text", body)

	endpoint := fmt.Sprintf("%s/%s/messages", m.baseURL, m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create mailgun request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mailgun request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mailgun status %d", resp.StatusCode)
	}
	return nil
}
