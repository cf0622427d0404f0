package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/valpere/doctran/internal/assembler"
	"github.com/valpere/doctran/internal/document"
	"github.com/valpere/doctran/internal/logging"
	"github.com/valpere/doctran/internal/prompt"
)

// Function names routed by Handle. Any other function name is treated as
// a translation request unless it carries an "action" parameter.
const (
	FunctionTranslate = "translate"
	FunctionPrompt    = "prompt_manager"
)

const (
	ActionShowPrompt   = "show_prompt"
	ActionUpdatePrompt = "update_prompt"
)

const maxRequestBytes = 1 << 20

type Transformer interface {
	Transform(ctx context.Context, sourceURL, targetLang string) (document.Handle, error)
}

type PromptManager interface {
	CurrentTemplate(ctx context.Context) (prompt.Template, error)
	PublishTemplate(ctx context.Context, content string) (prompt.Template, error)
}

type Handler struct {
	transformer Transformer
	prompts     PromptManager
	defaultLang string
	logger      *slog.Logger
}

type Option func(*Handler)

// WithDefaultLanguage sets the target used when a request has no
// "language" parameter.
func WithDefaultLanguage(lang string) Option {
	return func(h *Handler) { h.defaultLang = lang }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

func NewHandler(t Transformer, p PromptManager, opts ...Option) *Handler {
	h := &Handler{
		transformer: t,
		prompts:     p,
		defaultLang: "jp",
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle dispatches req and always produces a response; failures are
// reported in the response body.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	logger := logging.FromContext(ctx, h.logger).With("action_group", req.ActionGroup, "function", req.Function)

	_, hasAction := req.Param("action")
	if req.Function == FunctionPrompt || hasAction {
		return Reply(req, h.managePrompt(ctx, logger, req))
	}
	return Reply(req, h.translate(ctx, logger, req))
}

func (h *Handler) translate(ctx context.Context, logger *slog.Logger, req Request) string {
	url, _ := req.Param("original_report_url")
	if url == "" {
		url, _ = req.Param("original_document_url")
	}
	if strings.TrimSpace(url) == "" {
		return "Error: original_report_url is required."
	}
	lang, _ := req.Param("language")
	if lang == "" {
		lang = h.defaultLang
	}

	logger.Info("translation requested", "url", url, "lang", lang)
	handle, err := h.transformer.Transform(ctx, url, lang)
	return assembler.Describe(handle, err)
}

func (h *Handler) managePrompt(ctx context.Context, logger *slog.Logger, req Request) string {
	if h.prompts == nil {
		return "Error: prompt management is not available."
	}
	action, _ := req.Param("action")

	switch action {
	case ActionShowPrompt:
		t, err := h.prompts.CurrentTemplate(ctx)
		if err != nil {
			logger.Error("failed to load prompt", "error", err)
			return fmt.Sprintf("Error: %v", err)
		}
		return fmt.Sprintf("Current prompt:\n%s\n\nCurrent prompt version:\n%s", t.Content, versionRef(t))

	case ActionUpdatePrompt:
		content, _ := req.Param("prompt")
		if strings.TrimSpace(content) == "" {
			return "Error: No new prompt specified."
		}
		t, err := h.prompts.PublishTemplate(ctx, content)
		if err != nil {
			logger.Warn("prompt update rejected", "error", err)
			return fmt.Sprintf("Error: %v", err)
		}
		logger.Info("prompt updated", "version", t.Version, "digest", t.Digest)
		return fmt.Sprintf("Prompt has been updated.\nNew prompt version: %s\nUpdated Prompt:\n%s", versionRef(t), t.Content)
	}
	return "Error: Please specify a valid action (show_prompt, update_prompt)."
}

func versionRef(t prompt.Template) string {
	digest := t.Digest
	if len(digest) > 12 {
		digest = digest[:12]
	}
	return fmt.Sprintf("%s:v%d (%s)", t.Name, t.Version, digest)
}

// ServeHTTP accepts a JSON request envelope via POST and writes the JSON
// response envelope.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request envelope: %v", err), http.StatusBadRequest)
		return
	}

	resp := h.Handle(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.FromContext(r.Context(), h.logger).Error("failed to write response", "error", err)
	}
}
