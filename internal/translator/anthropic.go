package translator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultAnthropicModel = "claude-3-7-sonnet-20250219"

// AnthropicCompleter calls the Anthropic Messages API.
type AnthropicCompleter struct {
	apiKey string
	model  string
	client anthropic.Client
}

func NewAnthropicCompleter(cfg ServiceConfig) *AnthropicCompleter {
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	opts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(cfg.APIKey),
		anthropicopt.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
		// The breaker decides what happens after a failure.
		anthropicopt.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	return &AnthropicCompleter{
		apiKey: cfg.APIKey,
		model:  model,
		client: anthropic.NewClient(opts...),
	}
}

func (s *AnthropicCompleter) Name() string {
	return "anthropic"
}

func (s *AnthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("anthropic API key required")
	}
	start := time.Now()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(s.model),
		MaxTokens:   MaxTokens,
		Temperature: anthropic.Float(Temperature),
		TopP:        anthropic.Float(TopP),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserContent)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	var httpResp *http.Response
	msg, err := s.client.Messages.New(ctx, params, anthropicopt.WithResponseInto(&httpResp))
	if err != nil {
		var apiErr *anthropic.Error
		switch {
		case errors.As(err, &apiErr):
			return nil, fmt.Errorf("API returned status %d: %w", apiErr.StatusCode, err)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case httpResp != nil && httpResp.StatusCode < http.StatusMultipleChoices:
			// The call went through; only the body could not be read.
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var sb strings.Builder
	found := false
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no text content", ErrMalformedResponse)
	}

	return &CompletionResponse{
		Text:    sb.String(),
		Model:   string(msg.Model),
		Latency: time.Since(start),
		Metadata: map[string]string{
			"input_tokens":  strconv.FormatInt(msg.Usage.InputTokens, 10),
			"output_tokens": strconv.FormatInt(msg.Usage.OutputTokens, 10),
			"stop_reason":   string(msg.StopReason),
		},
	}, nil
}
