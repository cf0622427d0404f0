package translator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valpere/doctran/internal/logging"
	"github.com/valpere/doctran/internal/placeholder"
	"github.com/valpere/doctran/internal/postprocess"
	"github.com/valpere/doctran/internal/prompt"
)

// PromptSource supplies the current prompt template. It is consulted on
// every call.
type PromptSource interface {
	CurrentTemplate(ctx context.Context) (prompt.Template, error)
}

// Memory is an optional cache of completed translations keyed by source
// text, target language and prompt digest.
type Memory interface {
	LookupTranslation(ctx context.Context, source, targetLang, digest string) (string, bool, error)
	SaveTranslation(ctx context.Context, source, targetLang, digest, translated, backend string) error
}

// Client turns (text, language) into translated text through a Completer.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	completer Completer
	prompts   PromptSource
	memory    Memory
	timeout   time.Duration
	logger    *slog.Logger
}

type Option func(*Client)

func WithMemory(m Memory) Option {
	return func(c *Client) { c.memory = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithCallTimeout bounds each completion call. Zero means no bound.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func NewClient(completer Completer, prompts PromptSource, opts ...Option) *Client {
	c := &Client{
		completer: completer,
		prompts:   prompts,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the name of the underlying completer.
func (c *Client) Backend() string {
	return c.completer.Name()
}

// Invoke translates text into targetLang. Empty or whitespace-only text is
// returned unchanged without contacting the service. Every completion
// failure, including an empty result, is a *ServiceError; nothing is
// retried.
func (c *Client) Invoke(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	tmpl, err := c.prompts.CurrentTemplate(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve prompt template: %w", err)
	}

	system := tmpl.Render(LanguageName(targetLang))
	if placeholder.HasMarkers(text) {
		system += "\n" + placeholder.InstructionHint()
	}

	logger := logging.FromContext(ctx, c.logger)

	if c.memory != nil {
		cached, ok, err := c.memory.LookupTranslation(ctx, text, targetLang, tmpl.Digest)
		if err != nil {
			logger.Warn("translation memory lookup failed", "error", err)
		} else if ok && strings.TrimSpace(cached) != "" {
			logger.Debug("translation memory hit", "lang", targetLang)
			// Entries are keyed on trimmed text; restore this source's spacing.
			return postprocess.Clean(text, cached), nil
		}
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.completer.Complete(callCtx, CompletionRequest{
		SystemPrompt: system,
		UserContent:  text,
		TargetLang:   targetLang,
	})
	if err != nil {
		return "", &ServiceError{Backend: c.completer.Name(), Err: err}
	}

	translated := postprocess.Clean(text, resp.Text)
	if translated == "" {
		return "", &ServiceError{Backend: c.completer.Name(), Err: ErrEmptyResult}
	}

	logger.Debug("block translated",
		"backend", c.completer.Name(),
		"model", resp.Model,
		"latency", resp.Latency,
		"chars", len(text),
	)

	if c.memory != nil {
		if err := c.memory.SaveTranslation(ctx, text, targetLang, tmpl.Digest, translated, c.completer.Name()); err != nil {
			logger.Warn("translation memory save failed", "error", err)
		}
	}
	return translated, nil
}
