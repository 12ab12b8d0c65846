package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode"

	_ "modernc.org/sqlite"

	"github.com/curionest/curionest/pkg/models"
)

// DefaultLimit is the number of passages returned when the caller does not
// ask for a specific count.
const DefaultLimit = 3

// Store returns ranked syllabus passages for a query, scoped to an exact
// (subject, chapter) pair. Implementations return an empty result on no
// match, on malformed input, and on internal failure — never an error. The
// pipeline treats "no usable signal" and "retrieval malfunction" identically.
type Store interface {
	Search(ctx context.Context, query, subject, chapter string, limit int) []string
}

// SQLiteStore is a Store backed by a SQLite syllabus table, ranking passages
// by term overlap with the query.
type SQLiteStore struct {
	db *sql.DB
}

const createSyllabusTable = `
CREATE TABLE IF NOT EXISTS syllabus (
	id TEXT PRIMARY KEY,
	subject TEXT NOT NULL,
	chapter TEXT NOT NULL,
	content TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_syllabus_scope ON syllabus(subject, chapter);
`

// New opens the syllabus database and runs auto-migration.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open syllabus db: %w", err)
	}

	if _, err := db.Exec(createSyllabusTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate syllabus db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Ingest stores syllabus documents, skipping documents that are incomplete
// or already present. It returns the number of documents added.
func (s *SQLiteStore) Ingest(ctx context.Context, docs []models.SyllabusDocument) (int, error) {
	added := 0
	for _, doc := range docs {
		if doc.ID == "" || doc.Subject == "" || doc.Chapter == "" || doc.Text == "" {
			continue
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO syllabus (id, subject, chapter, content) VALUES (?, ?, ?, ?)`,
			doc.ID, doc.Subject, doc.Chapter, doc.Text,
		)
		if err != nil {
			return added, fmt.Errorf("ingest document %s: %w", doc.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}

// Search returns up to limit passages for the query, most relevant first.
// Relevance is the number of distinct query terms a passage contains.
func (s *SQLiteStore) Search(ctx context.Context, query, subject, chapter string, limit int) []string {
	if query == "" || subject == "" || chapter == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT content FROM syllabus WHERE subject = ? AND chapter = ?`,
		subject, chapter,
	)
	if err != nil {
		log.Printf("syllabus search failed: %v", err)
		return nil
	}
	defer rows.Close()

	type scored struct {
		text  string
		score int
	}
	var matches []scored
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			log.Printf("syllabus scan failed: %v", err)
			return nil
		}
		lower := strings.ToLower(content)
		score := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{text: content, score: score})
		}
	}
	if err := rows.Err(); err != nil {
		log.Printf("syllabus search failed: %v", err)
		return nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	passages := make([]string, len(matches))
	for i, m := range matches {
		passages[i] = m.text
	}
	return passages
}

// Count returns the number of stored syllabus documents.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM syllabus`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count syllabus: %w", err)
	}
	return n, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// tokenize lowercases the query and splits it into distinct alphanumeric terms.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	var terms []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			terms = append(terms, f)
		}
	}
	return terms
}
