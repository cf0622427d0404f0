package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/valpere/doctran/internal/prompt"
)

// seedPrompt publishes the default template when no version exists yet.
func (s *Store) seedPrompt(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompts WHERE name = ?`, prompt.Name).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := s.PublishTemplate(ctx, prompt.DefaultTemplate)
	return err
}

// CurrentTemplate returns the latest published version of the translation
// prompt.
func (s *Store) CurrentTemplate(ctx context.Context) (prompt.Template, error) {
	t := prompt.Template{Name: prompt.Name}
	err := s.db.QueryRowContext(ctx,
		`SELECT version, digest, content, created_at FROM prompts WHERE name = ? ORDER BY version DESC LIMIT 1`,
		prompt.Name).Scan(&t.Version, &t.Digest, &t.Content, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return prompt.Template{}, fmt.Errorf("prompt %s: %w", prompt.Name, ErrNotFound)
	}
	if err != nil {
		return prompt.Template{}, err
	}
	return t, nil
}

// PublishTemplate validates content and appends it as a new version.
// Publishing content identical to the current version is a no-op.
func (s *Store) PublishTemplate(ctx context.Context, content string) (prompt.Template, error) {
	if err := prompt.Validate(content); err != nil {
		return prompt.Template{}, err
	}
	digest := prompt.Digest(content)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return prompt.Template{}, err
	}
	defer tx.Rollback()

	var (
		version    int
		lastDigest sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT version, digest FROM prompts WHERE name = ? ORDER BY version DESC LIMIT 1`,
		prompt.Name).Scan(&version, &lastDigest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return prompt.Template{}, err
	}
	if lastDigest.Valid && lastDigest.String == digest {
		return s.currentTemplateTx(ctx, tx)
	}

	t := prompt.Template{
		Name:      prompt.Name,
		Version:   version + 1,
		Digest:    digest,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO prompts (name, version, digest, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.Version, t.Digest, t.Content, t.CreatedAt); err != nil {
		return prompt.Template{}, err
	}
	if err := tx.Commit(); err != nil {
		return prompt.Template{}, err
	}
	return t, nil
}

// currentTemplateTx reads the latest version inside tx.
func (s *Store) currentTemplateTx(ctx context.Context, tx *sql.Tx) (prompt.Template, error) {
	t := prompt.Template{Name: prompt.Name}
	err := tx.QueryRowContext(ctx,
		`SELECT version, digest, content, created_at FROM prompts WHERE name = ? ORDER BY version DESC LIMIT 1`,
		prompt.Name).Scan(&t.Version, &t.Digest, &t.Content, &t.CreatedAt)
	return t, err
}

// ListTemplates returns every published version, newest first.
func (s *Store) ListTemplates(ctx context.Context) ([]prompt.Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, digest, content, created_at FROM prompts WHERE name = ? ORDER BY version DESC`,
		prompt.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []prompt.Template
	for rows.Next() {
		t := prompt.Template{Name: prompt.Name}
		if err := rows.Scan(&t.Version, &t.Digest, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}
