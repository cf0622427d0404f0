package translator

import (
	"context"
	"fmt"
	"strings"
)

// Backends lists the names accepted by NewCompleter.
var Backends = []string{"anthropic", "openai", "gemini", "google", "echo"}

func NewCompleter(ctx context.Context, cfg ServiceConfig) (Completer, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "anthropic":
		return NewAnthropicCompleter(cfg), nil
	case "openai":
		return NewOpenAICompleter(cfg), nil
	case "gemini":
		return NewGeminiCompleter(ctx, cfg)
	case "google":
		return NewGoogleCompleter(ctx, cfg)
	case "echo":
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown completion backend %q (want one of %s)", cfg.Backend, strings.Join(Backends, ", "))
	}
}
