package logstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/curionest/curionest/pkg/models"
)

func setup(t *testing.T) (*Store, context.Context) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "logs_test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s, context.Background()
}

func TestLogAndRecent(t *testing.T) {
	s, ctx := setup(t)

	_ = s.Log(ctx, models.EventQuestionReceived, "What is 2+2?")
	_ = s.Log(ctx, models.EventAnswered, "The answer is 4.")

	events, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	// Most recent first.
	if events[0].EventType != models.EventAnswered {
		t.Errorf("expected newest event first, got %s", events[0].EventType)
	}
	if events[1].Details != "What is 2+2?" {
		t.Errorf("unexpected details: %q", events[1].Details)
	}
}

func TestEventCounts(t *testing.T) {
	s, ctx := setup(t)

	for i := 0; i < 3; i++ {
		_ = s.Log(ctx, models.EventEscalated, "Advanced question requires teacher")
	}
	_ = s.Log(ctx, models.EventAnswered, "ok")

	counts, err := s.EventCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]int64, len(counts))
	for _, c := range counts {
		got[c.EventType] = c.Count
	}
	if got[models.EventEscalated] != 3 {
		t.Errorf("expected 3 escalations, got %d", got[models.EventEscalated])
	}
	if got[models.EventAnswered] != 1 {
		t.Errorf("expected 1 answer, got %d", got[models.EventAnswered])
	}
}

func TestUsageTotals(t *testing.T) {
	s, ctx := setup(t)

	_ = s.LogUsage(ctx, models.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120})
	_ = s.LogUsage(ctx, models.Usage{PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60})
	// A corrupt usage row must be skipped, not fail the sum.
	_ = s.Log(ctx, models.EventOpenAIUsage, "not json")
	_ = s.Log(ctx, models.EventAnswered, "unrelated")

	totals, err := s.UsageTotals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if totals.PromptTokens != 150 {
		t.Errorf("expected 150 prompt tokens, got %d", totals.PromptTokens)
	}
	if totals.TotalTokens != 180 {
		t.Errorf("expected 180 total tokens, got %d", totals.TotalTokens)
	}
}
