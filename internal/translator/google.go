package translator

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"google.golang.org/api/option"
)

// GoogleCompleter is a machine-translation backend. It has no notion of a
// system prompt; placeholder markers travel through it as opaque text.
type GoogleCompleter struct {
	client *translate.Client
}

func NewGoogleCompleter(ctx context.Context, cfg ServiceConfig) (*GoogleCompleter, error) {
	opts := []option.ClientOption{}
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &GoogleCompleter{client: client}, nil
}

func (s *GoogleCompleter) Name() string {
	return "google"
}

func (s *GoogleCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	target, err := LanguageTag(req.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("invalid target language: %w", err)
	}

	translations, err := s.client.Translate(ctx, []string{req.UserContent}, target, &translate.Options{
		Format: translate.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		return nil, fmt.Errorf("%w: no translation returned", ErrMalformedResponse)
	}

	return &CompletionResponse{
		Text:    translations[0].Text,
		Model:   "nmt",
		Latency: time.Since(start),
		Metadata: map[string]string{
			"detected_source": translations[0].Source.String(),
		},
	}, nil
}

func (s *GoogleCompleter) Close() error {
	return s.client.Close()
}
