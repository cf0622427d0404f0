// Package assembler runs a whole document through translation: fetch,
// translate title and description, translate blocks, persist.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valpere/doctran/internal"
	"github.com/valpere/doctran/internal/document"
	"github.com/valpere/doctran/internal/logging"
	"github.com/valpere/doctran/internal/orchestrator"
)

// DocumentStore loads and saves documents.
type DocumentStore interface {
	Fetch(ctx context.Context, url string) (*document.Document, error)
	Persist(ctx context.Context, doc *document.Document) (document.Handle, error)
}

// RunRecorder receives an audit record for every Transform call.
type RunRecorder interface {
	RecordRun(ctx context.Context, run internal.TranslationRun) error
}

// Translator translates a single string.
type Translator interface {
	Invoke(ctx context.Context, text, targetLang string) (string, error)
}

type Assembler struct {
	docs     DocumentStore
	client   Translator
	blocks   *orchestrator.Orchestrator
	recorder RunRecorder
	backend  string
	entity   string
	project  string
	logger   *slog.Logger
}

type Option func(*Assembler)

// WithDestination overrides the entity and project the translated
// document is stored under. Empty values keep the source's.
func WithDestination(entity, project string) Option {
	return func(a *Assembler) {
		a.entity = entity
		a.project = project
	}
}

// WithRecorder records every run, successful or not, tagged with backend.
func WithRecorder(r RunRecorder, backend string) Option {
	return func(a *Assembler) {
		a.recorder = r
		a.backend = backend
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

func New(docs DocumentStore, client Translator, blocks *orchestrator.Orchestrator, opts ...Option) *Assembler {
	a := &Assembler{
		docs:   docs,
		client: client,
		blocks: blocks,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NormalizeURL folds every run of three or more hyphens down to two.
func NormalizeURL(raw string) string {
	for strings.Contains(raw, "---") {
		raw = strings.ReplaceAll(raw, "---", "--")
	}
	return raw
}

// Transform translates the document at sourceURL into targetLang and
// stores the result as a new document. Errors are *LoadError, *StageError,
// *orchestrator.BlockError or *PersistError.
func (a *Assembler) Transform(ctx context.Context, sourceURL, targetLang string) (document.Handle, error) {
	start := time.Now()
	sourceURL = NormalizeURL(strings.TrimSpace(sourceURL))
	logger := logging.FromContext(ctx, a.logger).With("url", sourceURL, "lang", targetLang)

	handle, blocks, err := a.transform(ctx, logger, sourceURL, targetLang)

	rec := internal.TranslationRun{
		SourceURL:  sourceURL,
		TargetURL:  handle.URL,
		TargetLang: targetLang,
		Backend:    a.backend,
		Status:     internal.RunCompleted,
		Blocks:     blocks,
		Duration:   time.Since(start),
		Timestamp:  start,
	}
	if err != nil {
		rec.Status = internal.RunFailed
		rec.Stage = StageOf(err)
		rec.Error = err.Error()
		logger.Error("document translation failed", "stage", rec.Stage, "error", err)
	} else {
		logger.Info("document translated", "target", handle.URL, "blocks", blocks, "duration", rec.Duration)
	}

	if a.recorder != nil {
		// Record even when ctx was cancelled mid-run.
		if rerr := a.recorder.RecordRun(context.WithoutCancel(ctx), rec); rerr != nil {
			logger.Warn("failed to record run", "error", rerr)
		}
	}
	return handle, err
}

func (a *Assembler) transform(ctx context.Context, logger *slog.Logger, sourceURL, targetLang string) (document.Handle, int, error) {
	src, err := a.docs.Fetch(ctx, sourceURL)
	if err != nil {
		return document.Handle{}, 0, &LoadError{URL: sourceURL, Err: err}
	}
	logger.Debug("document loaded", "title", src.Title, "blocks", len(src.Blocks))

	title, err := a.client.Invoke(ctx, src.Title, targetLang)
	if err != nil {
		return document.Handle{}, 0, &StageError{Stage: StageTitle, Err: err}
	}
	description, err := a.client.Invoke(ctx, src.Description, targetLang)
	if err != nil {
		return document.Handle{}, 0, &StageError{Stage: StageDescription, Err: err}
	}

	run, err := a.blocks.Run(ctx, src.Blocks, targetLang)
	if err != nil {
		return document.Handle{}, 0, err
	}

	out := &document.Document{
		Entity:      src.Entity,
		Project:     src.Project,
		Title:       title,
		Description: description,
		Blocks:      run.Blocks,
	}
	if a.entity != "" {
		out.Entity = a.entity
	}
	if a.project != "" {
		out.Project = a.project
	}

	handle, err := a.docs.Persist(ctx, out)
	if err != nil {
		return document.Handle{}, 0, &PersistError{Err: err}
	}
	return handle, len(run.Blocks), nil
}

// Describe renders the outcome of Transform as the text shown to users.
func Describe(handle document.Handle, err error) string {
	if err == nil {
		return fmt.Sprintf("Translation completed!\nTitle: %s\nURL: %s", handle.Title, handle.URL)
	}

	var be *orchestrator.BlockError
	switch {
	case errors.As(err, &be):
		return fmt.Sprintf("Error during translation: Error translating block %d: %v", be.Index, be.Err)
	case StageOf(err) != "":
		return fmt.Sprintf("Error during translation: %s stage: %v", StageOf(err), errors.Unwrap(err))
	}
	return fmt.Sprintf("Error during translation: %v", err)
}
