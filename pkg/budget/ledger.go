package budget

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/curionest/curionest/pkg/models"
)

// Stable escalation reasons for denied admission.
const (
	ReasonDailyExceeded  = "Daily token budget exceeded"
	ReasonHourlyExceeded = "Hourly token budget exceeded"
)

// Bucket key layouts, UTC wall clock.
const (
	dayLayout  = "2006-01-02"
	hourLayout = "2006-01-02T15"
)

// ExceededError reports that a budget cap denied admission. Reason is one of
// the stable reason strings above.
type ExceededError struct {
	Reason string
}

func (e *ExceededError) Error() string {
	return e.Reason
}

// Ledger tracks rolling daily and hourly token consumption against fixed
// caps in a single SQLite counter row. All check-and-update operations are
// serialized: the read-reset-check-write sequence is one unit under a mutex
// and a single transaction, so two concurrent callers cannot both pass the
// cap check before either writes.
type Ledger struct {
	db     *sql.DB
	daily  int64
	hourly int64
	mu     sync.Mutex

	now func() time.Time
}

const createCountersTable = `
CREATE TABLE IF NOT EXISTS usage_counters (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	daily_tokens INTEGER NOT NULL DEFAULT 0,
	hourly_tokens INTEGER NOT NULL DEFAULT 0,
	day TEXT NOT NULL DEFAULT '',
	hour TEXT NOT NULL DEFAULT ''
);
`

// New opens the ledger database, creates the counter row if missing, and
// returns a Ledger enforcing the given daily and hourly caps.
func New(dbPath string, daily, hourly int64) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	if _, err := db.Exec(createCountersTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger db: %w", err)
	}
	if _, err := db.Exec(
		`INSERT OR IGNORE INTO usage_counters (id, daily_tokens, hourly_tokens, day, hour) VALUES (1, 0, 0, '', '')`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("init counter row: %w", err)
	}

	return &Ledger{db: db, daily: daily, hourly: hourly, now: time.Now}, nil
}

// CheckAndUpdate atomically checks the caps and, if admitted, adds
// tokensToAdd to both counters. Counters whose stored bucket key no longer
// matches the current UTC day or hour are reset to zero before the cap
// comparison; the two resets are independent. A denied admission returns
// *ExceededError without any partial increment. tokensToAdd of zero is a
// pure admission check and never changes admission state on its own.
func (l *Ledger) CheckAndUpdate(ctx context.Context, tokensToAdd int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	today := now.Format(dayLayout)
	hour := now.Format(hourLayout)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	var st models.CounterState
	err = tx.QueryRowContext(ctx,
		`SELECT daily_tokens, hourly_tokens, day, hour FROM usage_counters WHERE id = 1`,
	).Scan(&st.DailyTokens, &st.HourlyTokens, &st.Day, &st.Hour)
	if err != nil {
		return fmt.Errorf("read counters: %w", err)
	}

	if st.Day != today {
		st.DailyTokens = 0
		st.Day = today
	}
	if st.Hour != hour {
		st.HourlyTokens = 0
		st.Hour = hour
	}

	if st.DailyTokens >= l.daily {
		return &ExceededError{Reason: ReasonDailyExceeded}
	}
	if st.HourlyTokens >= l.hourly {
		return &ExceededError{Reason: ReasonHourlyExceeded}
	}

	st.DailyTokens += tokensToAdd
	st.HourlyTokens += tokensToAdd

	if _, err := tx.ExecContext(ctx,
		`UPDATE usage_counters SET daily_tokens = ?, hourly_tokens = ?, day = ?, hour = ? WHERE id = 1`,
		st.DailyTokens, st.HourlyTokens, st.Day, st.Hour,
	); err != nil {
		return fmt.Errorf("write counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit counters: %w", err)
	}
	return nil
}

// Status returns the stored counter row as-is, without applying resets.
func (l *Ledger) Status(ctx context.Context) (models.CounterState, error) {
	var st models.CounterState
	err := l.db.QueryRowContext(ctx,
		`SELECT daily_tokens, hourly_tokens, day, hour FROM usage_counters WHERE id = 1`,
	).Scan(&st.DailyTokens, &st.HourlyTokens, &st.Day, &st.Hour)
	if err != nil {
		return models.CounterState{}, fmt.Errorf("read counters: %w", err)
	}
	return st, nil
}

// Caps returns the configured daily and hourly caps.
func (l *Ledger) Caps() (daily, hourly int64) {
	return l.daily, l.hourly
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}
