package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/curionest/curionest/pkg/config"
	"github.com/curionest/curionest/pkg/models"
	"github.com/curionest/curionest/pkg/notify"
	"github.com/curionest/curionest/pkg/ratelimit"
)

// Question bounds enforced before the pipeline is reached.
const (
	maxQuestionChars = 500
	maxQuestionWords = 80
)

// Pipeline is the decision pipeline contract the server calls into.
type Pipeline interface {
	Handle(ctx context.Context, question, subject, chapter string) models.Outcome
}

// Server is the HTTP front door for the triage service. It validates input,
// throttles clients, invokes the pipeline, and triggers the escalation
// notifier; the pipeline itself never sends mail.
type Server struct {
	cfg      *config.Config
	pipeline Pipeline
	notifier notify.Notifier
	limiter  *ratelimit.Limiter
	mux      *http.ServeMux
}

// New creates a Server. notifier may be nil to disable escalation mail.
func New(cfg *config.Config, pipeline Pipeline, notifier notify.Notifier) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		notifier: notifier,
		mux:      http.NewServeMux(),
	}
	if cfg.RateLimit.Enabled {
		s.limiter = ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.MaxClients)
	}
	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ask-question", s.handleAskQuestion)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("curionest listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "CurioNest AI Student Support Engine",
		"status":  "running",
		"endpoints": map[string]string{
			"health":       "/health",
			"ask_question": "/ask-question",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := validateQuestion(q); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	// An in-flight provider call completes or times out normally even if
	// the client disconnects mid-pipeline.
	ctx := context.WithoutCancel(r.Context())
	outcome := s.pipeline.Handle(ctx, q.Text, q.Subject, q.Chapter)

	if outcome.Escalated && s.notifier != nil {
		subjectLine := notify.EscalationSubject(q.Subject, q.Chapter)
		body := notify.EscalationBody(q.Text, q.Subject, q.Chapter, outcome.String())
		if err := s.notifier.Notify(ctx, subjectLine, body); err != nil {
			// Notifier delivery failures never affect the response.
			log.Printf("escalation notify failed (request %s): %v", requestID, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": outcome.String()})
}

// validateQuestion returns a rejection message, or "" when the question is
// acceptable. These rejections are caller-side validation errors, distinct
// from pipeline escalations.
func validateQuestion(q models.Question) string {
	if q.Text == "" || q.Subject == "" || q.Chapter == "" {
		return "question, subject, and chapter are required"
	}
	if len(q.Text) > maxQuestionChars {
		return fmt.Sprintf("question exceeds %d characters", maxQuestionChars)
	}
	if len(strings.Fields(q.Text)) > maxQuestionWords {
		return fmt.Sprintf("question exceeds %d words", maxQuestionWords)
	}
	return ""
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":%q}`+"\n", message)
}
