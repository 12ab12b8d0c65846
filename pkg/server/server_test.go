package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/curionest/curionest/pkg/config"
	"github.com/curionest/curionest/pkg/models"
)

type stubPipeline struct {
	outcome models.Outcome
	calls   int
}

func (p *stubPipeline) Handle(ctx context.Context, question, subject, chapter string) models.Outcome {
	p.calls++
	return p.outcome
}

type stubNotifier struct {
	err         error
	calls       int
	lastSubject string
	lastBody    string
}

func (n *stubNotifier) Notify(ctx context.Context, subjectLine, body string) error {
	n.calls++
	n.lastSubject = subjectLine
	n.lastBody = body
	return n.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	return cfg
}

func ask(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask-question", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp["result"]
}

func TestAskQuestionAnswer(t *testing.T) {
	pipeline := &stubPipeline{outcome: models.Answered("The answer is 4.")}
	notifier := &stubNotifier{}
	srv := New(testConfig(), pipeline, notifier)

	w := ask(t, srv, `{"question":"What is 2+2?","subject":"Math","chapter":"Addition"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decodeResult(t, w); got != "The answer is 4." {
		t.Errorf("unexpected result: %q", got)
	}
	if notifier.calls != 0 {
		t.Error("notifier must not fire for answers")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request ID header")
	}
}

func TestAskQuestionEscalationNotifies(t *testing.T) {
	pipeline := &stubPipeline{outcome: models.Escalate("No syllabus content found")}
	notifier := &stubNotifier{}
	srv := New(testConfig(), pipeline, notifier)

	w := ask(t, srv, `{"question":"What is 2+2?","subject":"Math","chapter":"Addition"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeResult(t, w); got != "ESCALATE TO SME: No syllabus content found" {
		t.Errorf("unexpected result: %q", got)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected 1 notification, got %d", notifier.calls)
	}
	if notifier.lastSubject != "CurioNest Escalation | Math - Addition" {
		t.Errorf("unexpected subject line: %q", notifier.lastSubject)
	}
	if !strings.Contains(notifier.lastBody, "What is 2+2?") {
		t.Errorf("notification body missing question: %q", notifier.lastBody)
	}
}

func TestNotifierFailureDoesNotAffectResponse(t *testing.T) {
	pipeline := &stubPipeline{outcome: models.Escalate("AI provider failure")}
	notifier := &stubNotifier{err: errors.New("mailgun down")}
	srv := New(testConfig(), pipeline, notifier)

	w := ask(t, srv, `{"question":"What is 2+2?","subject":"Math","chapter":"Addition"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("notifier failure leaked into response: %d", w.Code)
	}
	if got := decodeResult(t, w); got != "ESCALATE TO SME: AI provider failure" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestValidationRejectsBeforePipeline(t *testing.T) {
	longText := strings.Repeat("a", 501)
	manyWords := strings.TrimSpace(strings.Repeat("word ", 81))

	cases := []struct {
		name string
		body string
	}{
		{"missing question", `{"subject":"Math","chapter":"Addition"}`},
		{"missing subject", `{"question":"What is 2+2?","chapter":"Addition"}`},
		{"missing chapter", `{"question":"What is 2+2?","subject":"Math"}`},
		{"too many characters", `{"question":"` + longText + `","subject":"Math","chapter":"Addition"}`},
		{"too many words", `{"question":"` + manyWords + `","subject":"Math","chapter":"Addition"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := &stubPipeline{outcome: models.Answered("x")}
			srv := New(testConfig(), pipeline, nil)

			w := ask(t, srv, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if pipeline.calls != 0 {
				t.Error("invalid input must never reach the pipeline")
			}
		})
	}
}

func TestBoundaryQuestionAccepted(t *testing.T) {
	// Exactly 80 words and well under 500 characters.
	boundary := strings.TrimSpace(strings.Repeat("ab ", 80))
	pipeline := &stubPipeline{outcome: models.Answered("ok")}
	srv := New(testConfig(), pipeline, nil)

	w := ask(t, srv, `{"question":"`+boundary+`","subject":"Math","chapter":"Addition"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 at the word boundary, got %d: %s", w.Code, w.Body.String())
	}
	if pipeline.calls != 1 {
		t.Error("boundary question should reach the pipeline")
	}
}

func TestInvalidJSON(t *testing.T) {
	srv := New(testConfig(), &stubPipeline{}, nil)
	w := ask(t, srv, `{"question":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := New(testConfig(), &stubPipeline{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/ask-question", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, MaxRequests: 1, Window: time.Minute, MaxClients: 16}
	srv := New(cfg, &stubPipeline{outcome: models.Answered("ok")}, nil)

	body := `{"question":"What is 2+2?","subject":"Math","chapter":"Addition"}`
	if w := ask(t, srv, body); w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}
	if w := ask(t, srv, body); w.Code != http.StatusTooManyRequests {
		t.Errorf("second request should be throttled, got %d", w.Code)
	}
}

func TestHomeAndHealth(t *testing.T) {
	srv := New(testConfig(), &stubPipeline{}, nil)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from home, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "CurioNest") {
		t.Errorf("unexpected home body: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from health, got %d", w.Code)
	}
}
