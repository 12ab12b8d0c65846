package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/curionest/curionest/pkg/budget"
	"github.com/curionest/curionest/pkg/completion"
	"github.com/curionest/curionest/pkg/config"
	"github.com/curionest/curionest/pkg/logstore"
	"github.com/curionest/curionest/pkg/models"
	"github.com/curionest/curionest/pkg/retrieval"
)

// Stable escalation reasons. Downstream consumers (notifier, analytics)
// distinguish causes by these strings, so they must not change.
const (
	ReasonContextFailure  = "Context identification failure"
	ReasonAdvanced        = "Advanced question requires teacher"
	ReasonNoContent       = "No syllabus content found"
	ReasonLowConfidence   = "Insufficient retrieval confidence"
	ReasonContextTooLarge = "Context too large for safe processing"
	ReasonBudgetCheck     = "Budget check failure"
	ReasonProviderFailure = "AI provider failure"
	ReasonEmptyAnswer     = "Empty AI response"
)

// systemInstruction constrains answers to the retrieved content only.
const systemInstruction = "Answer ONLY from provided content."

// tokensPerWord approximates provider token cost from a word count.
const tokensPerWord = 1.3

// minPassages is the retrieval confidence floor: a single matching passage
// is too weak a signal to trust an unsupervised generative answer.
const minPassages = 2

// advancedKeywords mark a question as requiring a human teacher.
var advancedKeywords = []string{"prove", "derive", "theorem"}

// Ledger is the budget admission and settlement contract the engine needs.
type Ledger interface {
	CheckAndUpdate(ctx context.Context, tokensToAdd int64) error
}

// Engine is the decision pipeline: a linear chain of gates from context
// identification to completion, where every gate may short-circuit to an
// escalation. Every code path terminates in a well-formed Outcome; no fault
// escapes to the caller.
type Engine struct {
	store  retrieval.Store
	ledger Ledger
	client completion.Client
	logs   *logstore.Store

	retrievalLimit   int
	maxContextTokens int
}

// New wires an Engine. logs may be nil to disable event logging.
func New(store retrieval.Store, ledger Ledger, client completion.Client, logs *logstore.Store, cfg config.PipelineConfig) *Engine {
	limit := cfg.RetrievalLimit
	if limit <= 0 {
		limit = retrieval.DefaultLimit
	}
	ceiling := cfg.MaxContextTokens
	if ceiling <= 0 {
		ceiling = 300
	}
	return &Engine{
		store:            store,
		ledger:           ledger,
		client:           client,
		logs:             logs,
		retrievalLimit:   limit,
		maxContextTokens: ceiling,
	}
}

// Handle runs one question through the pipeline and returns its outcome.
func (e *Engine) Handle(ctx context.Context, question, subject, chapter string) models.Outcome {
	e.logEvent(ctx, models.EventQuestionReceived, question)

	ic, err := identifyContext(question, subject, chapter)
	if err != nil {
		return e.escalate(ctx, ReasonContextFailure)
	}

	if reason := decideAction(ic); reason != "" {
		return e.escalate(ctx, reason)
	}

	passages := e.store.Search(ctx, ic.Question, ic.Subject, ic.Chapter, e.retrievalLimit)
	if len(passages) == 0 {
		return e.escalate(ctx, ReasonNoContent)
	}
	if len(passages) < minPassages {
		return e.escalate(ctx, ReasonLowConfidence)
	}

	content := strings.Join(passages, "\n")

	// Pre-admission kill-switch: pathological inputs never touch the
	// ledger or the provider. The estimate covers retrieved content only
	// and is a safety margin, not exact accounting.
	if estimateTokens(content) > e.maxContextTokens {
		return e.escalate(ctx, ReasonContextTooLarge)
	}

	// Admission: a zero-token check against the caps.
	if err := e.ledger.CheckAndUpdate(ctx, 0); err != nil {
		var ex *budget.ExceededError
		if errors.As(err, &ex) {
			return e.escalate(ctx, ex.Reason)
		}
		log.Printf("budget admission failed: %v", err)
		return e.escalate(ctx, ReasonBudgetCheck)
	}

	userContent := fmt.Sprintf("Content:\n%s\n\nQuestion:\n%s", content, ic.Question)
	res, err := e.client.Complete(ctx, systemInstruction, userContent)
	if err != nil {
		log.Printf("completion failed: %v", err)
		e.logEvent(ctx, models.EventProviderError, err.Error())
		return e.escalate(ctx, ReasonProviderFailure)
	}
	if strings.TrimSpace(res.Text) == "" {
		return e.escalate(ctx, ReasonEmptyAnswer)
	}

	// Settlement is best-effort: losing a token-count update is preferable
	// to discarding a correct answer.
	if err := e.ledger.CheckAndUpdate(ctx, int64(res.Usage.TotalTokens)); err != nil {
		log.Printf("budget settlement failed: %v", err)
	}
	if e.logs != nil {
		if err := e.logs.LogUsage(ctx, res.Usage); err != nil {
			log.Printf("usage log failed: %v", err)
		}
	}
	e.logEvent(ctx, models.EventAnswered, res.Text)

	return models.Answered(res.Text)
}

// identifyContext builds the request-scoped context with its difficulty
// classification. Malformed input is the only failure mode.
func identifyContext(question, subject, chapter string) (*models.IdentifiedContext, error) {
	if question == "" || subject == "" || chapter == "" {
		return nil, fmt.Errorf("incomplete question context")
	}
	return &models.IdentifiedContext{
		Question:   question,
		Subject:    subject,
		Chapter:    chapter,
		Difficulty: classifyDifficulty(question),
	}, nil
}

// decideAction is a pure function of the identified context. It returns an
// escalation reason, or "" to proceed to respond.
func decideAction(ic *models.IdentifiedContext) string {
	if ic.Difficulty == models.DifficultyAdvanced {
		ic.EscalationReason = ReasonAdvanced
		return ReasonAdvanced
	}
	return ""
}

// classifyDifficulty marks a question advanced if it contains any of the
// advanced keywords, case-insensitive.
func classifyDifficulty(question string) models.Difficulty {
	lower := strings.ToLower(question)
	for _, kw := range advancedKeywords {
		if strings.Contains(lower, kw) {
			return models.DifficultyAdvanced
		}
	}
	return models.DifficultyBasic
}

// estimateTokens approximates the provider token cost of a text.
func estimateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * tokensPerWord)
}

func (e *Engine) escalate(ctx context.Context, reason string) models.Outcome {
	e.logEvent(ctx, models.EventEscalated, reason)
	return models.Escalate(reason)
}

func (e *Engine) logEvent(ctx context.Context, eventType, details string) {
	if e.logs == nil {
		return
	}
	if err := e.logs.Log(ctx, eventType, details); err != nil {
		log.Printf("event log failed: %v", err)
	}
}
