// Package history persists chat exchanges to SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tmammadov17503/rag-ml-ops/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	context    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, created_at);
`

// Store records question/answer exchanges per chat session.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the exchange database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores one exchange and returns it with its generated id.
func (s *Store) Record(ctx context.Context, sessionID, question, answer, ragContext string) (*models.Exchange, error) {
	ex := &models.Exchange{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		Context:   ragContext,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, session_id, question, answer, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.SessionID, ex.Question, ex.Answer, ex.Context, ex.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("record exchange: %w", err)
	}
	return ex, nil
}

// BySession returns a session's exchanges in chronological order.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]*models.Exchange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, question, answer, context, created_at
		 FROM exchanges WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	var out []*models.Exchange
	for rows.Next() {
		var ex models.Exchange
		if err := rows.Scan(&ex.ID, &ex.SessionID, &ex.Question, &ex.Answer, &ex.Context, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		out = append(out, &ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session history: %w", err)
	}
	return out, nil
}

// CountExchanges returns the total number of recorded exchanges.
func (s *Store) CountExchanges(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count exchanges: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
