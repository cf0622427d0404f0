package translator

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiCompleter calls GenerateContent on the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, cfg ServiceConfig) (*GeminiCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

func (s *GeminiCompleter) Name() string {
	return "gemini"
}

func (s *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(req.UserContent), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](Temperature),
		TopP:              genai.Ptr[float32](TopP),
		MaxOutputTokens:   MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", ErrMalformedResponse)
	}

	meta := map[string]string{
		"finish_reason": string(resp.Candidates[0].FinishReason),
	}
	if resp.UsageMetadata != nil {
		meta["prompt_tokens"] = fmt.Sprintf("%d", resp.UsageMetadata.PromptTokenCount)
		meta["completion_tokens"] = fmt.Sprintf("%d", resp.UsageMetadata.CandidatesTokenCount)
	}

	return &CompletionResponse{
		Text:     resp.Text(),
		Model:    s.model,
		Latency:  time.Since(start),
		Metadata: meta,
	}, nil
}
