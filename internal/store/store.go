// Package store is the SQLite persistence layer: source and translated
// documents, versioned prompt templates, translation memory and the run
// audit log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrMalformedURL = errors.New("malformed document URL")
)

const DefaultBaseURL = "https://docs.doctran.local"

type Store struct {
	db      *sql.DB
	baseURL string
}

type Option func(*Store)

// WithBaseURL sets the prefix of document URLs minted by Persist.
func WithBaseURL(base string) Option {
	return func(s *Store) {
		if base != "" {
			s.baseURL = strings.TrimRight(base, "/")
		}
	}
}

func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; the worker pool shares this handle.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	if err := s.seedPrompt(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed prompt: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		entity TEXT NOT NULL,
		project TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		blocks TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- prompts keeps every published version of a template
	CREATE TABLE IF NOT EXISTS prompts (
		name TEXT NOT NULL,
		version INTEGER NOT NULL,
		digest TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (name, version)
	);

	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		prompt_digest TEXT NOT NULL,
		final_text TEXT NOT NULL,
		service_used TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, target_lang, prompt_digest)
	);

	-- translation_runs is the audit log of document translations
	CREATE TABLE IF NOT EXISTS translation_runs (
		id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL,
		target_url TEXT,
		target_lang TEXT NOT NULL,
		backend TEXT,
		status TEXT NOT NULL,
		stage TEXT,
		error TEXT,
		blocks INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, target_lang, prompt_digest);
	CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(entity, project);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON translation_runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
