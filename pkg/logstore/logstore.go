package logstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/curionest/curionest/pkg/models"
)

// Store writes and queries domain events in a SQLite log table.
type Store struct {
	db *sql.DB
}

const createLogsTable = `
CREATE TABLE IF NOT EXISTS logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	event_type TEXT NOT NULL,
	details TEXT
);
CREATE INDEX IF NOT EXISTS idx_logs_type ON logs(event_type);
`

// New opens the log database and runs auto-migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open log db: %w", err)
	}

	if _, err := db.Exec(createLogsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate log db: %w", err)
	}

	return &Store{db: db}, nil
}

// Log inserts one event with the current UTC timestamp.
func (s *Store) Log(ctx context.Context, eventType, details string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (timestamp, event_type, details) VALUES (?, ?, ?)`,
		time.Now().UTC(), eventType, details,
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// LogUsage records provider-reported token usage as a JSON detail payload.
func (s *Store) LogUsage(ctx context.Context, usage models.Usage) error {
	details, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("marshal usage: %w", err)
	}
	return s.Log(ctx, models.EventOpenAIUsage, string(details))
}

// Recent returns the newest events, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.LogEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, event_type, details FROM logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var events []models.LogEvent
	for rows.Next() {
		var e models.LogEvent
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.EventType, &details); err != nil {
			return nil, fmt.Errorf("scan log event: %w", err)
		}
		e.Details = details.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// EventCounts returns how many times each event type occurred.
func (s *Store) EventCounts(ctx context.Context) ([]models.EventCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_type, COUNT(*) FROM logs GROUP BY event_type ORDER BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	var counts []models.EventCount
	for rows.Next() {
		var c models.EventCount
		if err := rows.Scan(&c.EventType, &c.Count); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// UsageTotals sums the token usage payloads of all usage events. Rows with
// unparseable details are skipped.
func (s *Store) UsageTotals(ctx context.Context) (models.UsageTotals, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT details FROM logs WHERE event_type = ?`, models.EventOpenAIUsage)
	if err != nil {
		return models.UsageTotals{}, fmt.Errorf("query usage events: %w", err)
	}
	defer rows.Close()

	var totals models.UsageTotals
	for rows.Next() {
		var details sql.NullString
		if err := rows.Scan(&details); err != nil {
			return models.UsageTotals{}, fmt.Errorf("scan usage event: %w", err)
		}
		var u models.Usage
		if err := json.Unmarshal([]byte(details.String), &u); err != nil {
			continue
		}
		totals.PromptTokens += int64(u.PromptTokens)
		totals.CompletionTokens += int64(u.CompletionTokens)
		totals.TotalTokens += int64(u.TotalTokens)
	}
	return totals, rows.Err()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
