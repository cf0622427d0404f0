package translator

import (
	"context"
	"time"
)

// Sampling parameters sent to every LLM backend.
const (
	MaxTokens   = 2000
	Temperature = 0.1
	TopP        = 0.5
)

type ServiceConfig struct {
	Backend     string        `mapstructure:"backend" json:"backend"`
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

type CompletionRequest struct {
	SystemPrompt string `json:"system_prompt"`
	UserContent  string `json:"user_content"`
	TargetLang   string `json:"target_lang"`
}

type CompletionResponse struct {
	Text     string            `json:"text"`
	Model    string            `json:"model"`
	Latency  time.Duration     `json:"latency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Completer is an external text-completion service.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
