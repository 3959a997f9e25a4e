// ABOUTME: SQLite-backed knowledge base for the development chat backend
// ABOUTME: Categories, questions, conversations, rated messages, and admin accounts

package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique name is already taken
	ErrDuplicate = errors.New("already exists")
	// ErrBadCredentials is returned when a login does not match an active admin
	ErrBadCredentials = errors.New("invalid username or password")
)

// Store is the knowledge base.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the database at path. ":memory:" keeps everything
// in process. Parent directories are created if needed.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "knowledge")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("knowledge base opened", "path", path)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS categories (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			icon        TEXT NOT NULL DEFAULT '',
			color       TEXT NOT NULL DEFAULT '',
			is_active   INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS questions (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			category_id    INTEGER REFERENCES categories(id),
			question_text  TEXT NOT NULL,
			answer_text    TEXT NOT NULL,
			keywords       TEXT NOT NULL DEFAULT '',
			difficulty     INTEGER NOT NULL DEFAULT 1,
			usage_count    INTEGER NOT NULL DEFAULT 0,
			accuracy_score REAL NOT NULL DEFAULT 0,
			rating_count   INTEGER NOT NULL DEFAULT 0,
			is_active      INTEGER NOT NULL DEFAULT 1,
			created_at     TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category_id);

		CREATE TABLE IF NOT EXISTS conversations (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id     TEXT NOT NULL,
			started_at     TEXT NOT NULL,
			total_messages INTEGER NOT NULL DEFAULT 0,
			language       TEXT NOT NULL DEFAULT 'es'
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id);

		CREATE TABLE IF NOT EXISTS messages (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL REFERENCES conversations(id),
			question_id     INTEGER REFERENCES questions(id),
			user_input      TEXT NOT NULL,
			bot_response    TEXT NOT NULL,
			intent          TEXT NOT NULL,
			confidence      REAL NOT NULL DEFAULT 0,
			keywords        TEXT NOT NULL DEFAULT '',
			response_ms     INTEGER NOT NULL DEFAULT 0,
			user_rating     INTEGER,
			user_feedback   TEXT,
			created_at      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

		CREATE TABLE IF NOT EXISTS admins (
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	s.logger.Info("closing knowledge base")
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
