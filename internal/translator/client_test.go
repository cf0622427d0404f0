package translator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/valpere/doctran/internal/prompt"
)

type funcCompleter struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

func (f *funcCompleter) Name() string {
	if f.name == "" {
		return "func"
	}
	return f.name
}

func (f *funcCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	f.calls.Add(1)
	return f.fn(ctx, req)
}

func replyWith(text string) *funcCompleter {
	return &funcCompleter{fn: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return &CompletionResponse{Text: text}, nil
	}}
}

type staticPrompts struct {
	calls   atomic.Int32
	content string
	err     error
}

func (p *staticPrompts) CurrentTemplate(ctx context.Context) (prompt.Template, error) {
	p.calls.Add(1)
	if p.err != nil {
		return prompt.Template{}, p.err
	}
	content := p.content
	if content == "" {
		content = prompt.DefaultTemplate
	}
	return prompt.Template{Name: prompt.Name, Version: 1, Content: content, Digest: prompt.Digest(content)}, nil
}

type mapMemory struct {
	mu      sync.Mutex
	entries map[string]string
}

func (m *mapMemory) key(source, lang, digest string) string {
	return source + "\x00" + lang + "\x00" + digest
}

func (m *mapMemory) LookupTranslation(ctx context.Context, source, lang, digest string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[m.key(source, lang, digest)]
	return v, ok, nil
}

func (m *mapMemory) SaveTranslation(ctx context.Context, source, lang, digest, translated, backend string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]string{}
	}
	m.entries[m.key(source, lang, digest)] = translated
	return nil
}

func TestInvoke_EmptyTextSkipsService(t *testing.T) {
	comp := replyWith("unused")
	prompts := &staticPrompts{}
	c := NewClient(comp, prompts)

	for _, text := range []string{"", "   ", "\n\t"} {
		got, err := c.Invoke(context.Background(), text, "jp")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != text {
			t.Errorf("expected %q returned unchanged, got %q", text, got)
		}
	}
	if comp.calls.Load() != 0 {
		t.Errorf("expected no service calls, got %d", comp.calls.Load())
	}
	if prompts.calls.Load() != 0 {
		t.Errorf("expected no prompt lookups, got %d", prompts.calls.Load())
	}
}

func TestInvoke_RendersLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"jp", "Translate the following text to Japanese."},
		{"ko", "Translate the following text to Korean."},
		{"en", "Translate the following text to English."},
		{"Klingon", "Translate the following text to Klingon."},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			var system string
			comp := &funcCompleter{fn: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
				system = req.SystemPrompt
				return &CompletionResponse{Text: "ok"}, nil
			}}
			c := NewClient(comp, &staticPrompts{})
			if _, err := c.Invoke(context.Background(), "Hello", tt.code); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(system, tt.want) {
				t.Errorf("system prompt %q does not start with %q", system, tt.want)
			}
		})
	}
}

func TestInvoke_TemplateResolvedEveryCall(t *testing.T) {
	prompts := &staticPrompts{}
	c := NewClient(replyWith("x"), prompts)
	for i := 0; i < 3; i++ {
		if _, err := c.Invoke(context.Background(), "Hello", "jp"); err != nil {
			t.Fatal(err)
		}
	}
	if prompts.calls.Load() != 3 {
		t.Errorf("expected 3 template lookups, got %d", prompts.calls.Load())
	}
}

func TestInvoke_MarkerHintAppended(t *testing.T) {
	var system string
	comp := &funcCompleter{fn: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		system = req.SystemPrompt
		return &CompletionResponse{Text: req.UserContent}, nil
	}}
	c := NewClient(comp, &staticPrompts{})

	if _, err := c.Invoke(context.Background(), "See __INLINECODE_7__ here", "jp"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(system, "__INLINECODE_n__") {
		t.Errorf("expected marker hint in system prompt, got %q", system)
	}
}

func TestInvoke_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		comp  *funcCompleter
		cause error
	}{
		{
			name: "service error",
			comp: &funcCompleter{fn: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
				return nil, boom
			}},
			cause: boom,
		},
		{
			name:  "empty result",
			comp:  replyWith("   "),
			cause: ErrEmptyResult,
		},
		{
			name:  "only artefacts",
			comp:  replyWith("<thinking>never finished"),
			cause: ErrEmptyResult,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.comp, &staticPrompts{})
			_, err := c.Invoke(context.Background(), "Hello", "jp")

			var se *ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("expected *ServiceError, got %T: %v", err, err)
			}
			if !errors.Is(err, ErrTranslationService) {
				t.Error("expected error to match ErrTranslationService")
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, err)
			}
			if tt.comp.calls.Load() != 1 {
				t.Errorf("expected exactly one call (no retry), got %d", tt.comp.calls.Load())
			}
		})
	}
}

func TestInvoke_PromptStoreFailure(t *testing.T) {
	comp := replyWith("x")
	c := NewClient(comp, &staticPrompts{err: errors.New("db closed")})

	_, err := c.Invoke(context.Background(), "Hello", "jp")
	if err == nil || errors.Is(err, ErrTranslationService) {
		t.Errorf("expected non-service error, got %v", err)
	}
	if comp.calls.Load() != 0 {
		t.Error("service should not be called without a template")
	}
}

func TestInvoke_PostprocessAndWhitespace(t *testing.T) {
	c := NewClient(replyWith(`Here is the translation: "世界"`), &staticPrompts{})

	got, err := c.Invoke(context.Background(), " World\n", "jp")
	if err != nil {
		t.Fatal(err)
	}
	if got != " 世界\n" {
		t.Errorf("expected cleaned text with source whitespace, got %q", got)
	}
}

func TestInvoke_Memory(t *testing.T) {
	comp := replyWith("世界")
	mem := &mapMemory{}
	c := NewClient(comp, &staticPrompts{}, WithMemory(mem))

	for i := 0; i < 2; i++ {
		got, err := c.Invoke(context.Background(), "World", "jp")
		if err != nil {
			t.Fatal(err)
		}
		if got != "世界" {
			t.Errorf("expected '世界', got %q", got)
		}
	}
	if comp.calls.Load() != 1 {
		t.Errorf("expected second call served from memory, got %d calls", comp.calls.Load())
	}

	c2 := NewClient(comp, &staticPrompts{content: "Render into {prompt_language}."}, WithMemory(mem))
	if _, err := c2.Invoke(context.Background(), "World", "jp"); err != nil {
		t.Fatal(err)
	}
	if comp.calls.Load() != 2 {
		t.Errorf("expected a new prompt version to miss memory, got %d calls", comp.calls.Load())
	}
}

func TestInvoke_CallTimeout(t *testing.T) {
	comp := &funcCompleter{fn: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := NewClient(comp, &staticPrompts{}, WithCallTimeout(10*time.Millisecond))

	_, err := c.Invoke(context.Background(), "Hello", "jp")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("boom")
	inner := &funcCompleter{name: "flaky", fn: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return nil, boom
	}}
	b := NewBreaker(inner, BreakerConfig{MaxFailures: 2, Timeout: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		if _, err := b.Complete(context.Background(), CompletionRequest{}); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	_, err := b.Complete(context.Background(), CompletionRequest{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("open breaker should not reach the service, got %d calls", inner.calls.Load())
	}
	if b.Name() != "flaky" {
		t.Errorf("expected wrapped name, got %q", b.Name())
	}
}

func TestBreaker_IgnoresCancellation(t *testing.T) {
	inner := &funcCompleter{fn: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return nil, context.Canceled
	}}
	b := NewBreaker(inner, BreakerConfig{MaxFailures: 1}, nil)

	for i := 0; i < 3; i++ {
		b.Complete(context.Background(), CompletionRequest{})
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("cancellation should not trip the breaker, state %s", b.State())
	}
}

func TestEcho(t *testing.T) {
	resp, err := Echo{}.Complete(context.Background(), CompletionRequest{UserContent: "same"})
	if err != nil || resp.Text != "same" {
		t.Errorf("expected echo, got %v %v", resp, err)
	}
}

func TestLanguageTag(t *testing.T) {
	tag, err := LanguageTag("jp")
	if err != nil {
		t.Fatal(err)
	}
	if tag.String() != "ja" {
		t.Errorf("expected ja, got %s", tag)
	}
	if _, err := LanguageTag("not a tag!"); err == nil {
		t.Error("expected parse error")
	}
}
