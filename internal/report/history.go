package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS searches (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    filename TEXT NOT NULL,
    report_file TEXT NOT NULL,
    top_score REAL,
    top_status TEXT,
    results INTEGER NOT NULL
);
`

// fixed width so created_at sorts as text
const historyTime = "2006-01-02T15:04:05.000000000Z"

// Entry is one successful search.
type Entry struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Filename   string    `json:"filename"`
	ReportFile string    `json:"report_file"`
	TopScore   float64   `json:"top_score"`
	TopStatus  string    `json:"top_status"`
	Results    int       `json:"results"`
}

// History records searches in a SQLite database. It only ever stores what
// the reports already contain, never embeddings.
type History struct {
	db *sql.DB
}

// OpenHistory opens (creating if needed) the database at dsn. ":memory:"
// works for tests.
func OpenHistory(dsn string) (*History, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error { return h.db.Close() }

func (h *History) Record(ctx context.Context, e Entry) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO searches (id, created_at, filename, report_file, top_score, top_status, results) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UTC().Format(historyTime), e.Filename, e.ReportFile, e.TopScore, e.TopStatus, e.Results)
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

// Recent returns up to limit searches, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, created_at, filename, report_file, top_score, top_status, results FROM searches ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &created, &e.Filename, &e.ReportFile, &e.TopScore, &e.TopStatus, &e.Results); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if e.CreatedAt, err = time.Parse(historyTime, created); err != nil {
			return nil, fmt.Errorf("parse history time: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
