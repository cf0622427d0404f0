package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/valpere/doctran/internal/document"
)

// DocumentSummary is a row of ListDocuments.
type DocumentSummary struct {
	ID        string
	Entity    string
	Project   string
	Title     string
	URL       string
	UpdatedAt time.Time
}

// Locator is the parsed form of a document URL:
// <base>/<entity>/<project>/reports/<Title-Slug>--<id>.
type Locator struct {
	Entity  string
	Project string
	Slug    string
	ID      string
}

// ParseURL extracts the locator from a document URL. Only the path is
// inspected, so documents can be addressed through any host.
func ParseURL(raw string) (Locator, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[len(parts)-2] != "reports" {
		return Locator{}, fmt.Errorf("%w: %q", ErrMalformedURL, raw)
	}
	parts = parts[len(parts)-4:]

	last := parts[3]
	i := strings.LastIndex(last, "--")
	if i < 0 {
		return Locator{}, fmt.Errorf("%w: no id in %q", ErrMalformedURL, raw)
	}
	id, err := uuid.Parse(last[i+2:])
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	return Locator{
		Entity:  parts[0],
		Project: parts[1],
		Slug:    last[:i],
		ID:      id.String(),
	}, nil
}

// DocumentURL builds the canonical URL of a document.
func (s *Store) DocumentURL(entity, project, title, id string) string {
	return fmt.Sprintf("%s/%s/%s/reports/%s--%s",
		s.baseURL, url.PathEscape(entity), url.PathEscape(project), Slugify(title), id)
}

// Slugify turns a title into a URL segment. Runs of anything other than
// letters and digits collapse to a single hyphen.
func Slugify(title string) string {
	var sb strings.Builder
	pending := false
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pending = false
			sb.WriteRune(r)
			continue
		}
		pending = true
	}
	if sb.Len() == 0 {
		return "Untitled"
	}
	return url.PathEscape(sb.String())
}

// Fetch loads the document addressed by rawURL.
func (s *Store) Fetch(ctx context.Context, rawURL string) (*document.Document, error) {
	loc, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, loc.ID)
}

// Get loads a document by id.
func (s *Store) Get(ctx context.Context, id string) (*document.Document, error) {
	doc := &document.Document{ID: id}
	var blocks string
	err := s.db.QueryRowContext(ctx,
		`SELECT entity, project, title, description, blocks FROM documents WHERE id = ?`, id).
		Scan(&doc.Entity, &doc.Project, &doc.Title, &doc.Description, &blocks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	doc.Blocks, err = document.UnmarshalBlocks([]byte(blocks))
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return doc, nil
}

// Persist stores doc, assigning a new id when it has none, and returns its
// handle.
func (s *Store) Persist(ctx context.Context, doc *document.Document) (document.Handle, error) {
	if doc.Entity == "" || doc.Project == "" {
		return document.Handle{}, fmt.Errorf("document needs an entity and a project")
	}
	blocks, err := document.MarshalBlocks(doc.Blocks)
	if err != nil {
		return document.Handle{}, err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, entity, project, title, description, blocks, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET entity = excluded.entity, project = excluded.project,
		 title = excluded.title, description = excluded.description, blocks = excluded.blocks,
		 updated_at = excluded.updated_at`,
		doc.ID, doc.Entity, doc.Project, doc.Title, doc.Description, string(blocks), now, now)
	if err != nil {
		return document.Handle{}, err
	}

	return document.Handle{
		URL:   s.DocumentURL(doc.Entity, doc.Project, doc.Title, doc.ID),
		Title: doc.Title,
	}, nil
}

// ListDocuments returns all documents, most recently updated first.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity, project, title, updated_at FROM documents ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DocumentSummary
	for rows.Next() {
		var d DocumentSummary
		if err := rows.Scan(&d.ID, &d.Entity, &d.Project, &d.Title, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.URL = s.DocumentURL(d.Entity, d.Project, d.Title, d.ID)
		results = append(results, d)
	}
	return results, rows.Err()
}
