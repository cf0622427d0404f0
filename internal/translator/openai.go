package translator

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAICompleter uses the chat completions endpoint of any
// OpenAI-compatible server.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(cfg ServiceConfig) *OpenAICompleter {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICompleter{
		client: openai.NewClientWithConfig(oc),
		model:  model,
	}
}

func (s *OpenAICompleter) Name() string {
	return "openai"
}

func (s *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserContent},
		},
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
		TopP:        TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	return &CompletionResponse{
		Text:    resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Latency: time.Since(start),
		Metadata: map[string]string{
			"prompt_tokens":     fmt.Sprintf("%d", resp.Usage.PromptTokens),
			"completion_tokens": fmt.Sprintf("%d", resp.Usage.CompletionTokens),
			"finish_reason":     string(resp.Choices[0].FinishReason),
		},
	}, nil
}
