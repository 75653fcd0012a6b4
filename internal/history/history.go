// Package history keeps a local SQLite log of finished keyboard interactions.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vkbd/keyboard"
)

// Entry is one finished interaction. Text is only kept for submitted results.
type Entry struct {
	ID            string
	Type          keyboard.ResultType
	Text          string
	MaxTextLength int
	ButtonConfig  keyboard.ButtonConfig
	FinishedAt    time.Time
}

// NewEntry builds the record for a result; cfg is the config the interaction
// was started with, since dismissed results do not echo it back.
func NewEntry(id string, cfg keyboard.Config, r keyboard.Result, at time.Time) Entry {
	e := Entry{
		ID:            id,
		Type:          r.Type,
		MaxTextLength: cfg.MaxTextLength,
		ButtonConfig:  cfg.ButtonConfig,
		FinishedAt:    at.UTC(),
	}
	if r.Submitted() {
		e.Text = r.Text
	}
	return e
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		max_text_length INTEGER NOT NULL,
		button_config TEXT NOT NULL,
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_finished_at ON results(finished_at);
	`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, type, text, max_text_length, button_config, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type.String(), e.Text, e.MaxTextLength, e.ButtonConfig.String(), e.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record result %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, text, max_text_length, button_config, finished_at FROM results ORDER BY finished_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			typ, bc    string
			finishedMs int64
		)
		if err := rows.Scan(&e.ID, &typ, &e.Text, &e.MaxTextLength, &bc, &finishedMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if e.Type, err = keyboard.ParseResultType(typ); err != nil {
			return nil, fmt.Errorf("history %s: %w", e.ID, err)
		}
		if e.ButtonConfig, err = keyboard.ParseButtonConfig(bc); err != nil {
			return nil, fmt.Errorf("history %s: %w", e.ID, err)
		}
		e.FinishedAt = time.UnixMilli(finishedMs).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
