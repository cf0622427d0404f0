package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// messagesBody is the part of a Messages API request the tests inspect.
type messagesBody struct {
	Model  string `json:"model"`
	System []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestAnthropicCompleter_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("expected anthropic-version header")
		}

		var req messagesBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != DefaultAnthropicModel {
			t.Errorf("unexpected model %q", req.Model)
		}
		if len(req.System) != 1 || req.System[0].Text != "Translate to Japanese." {
			t.Errorf("unexpected system prompt %+v", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" ||
			len(req.Messages[0].Content) != 1 || req.Messages[0].Content[0].Text != "Hello" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		if req.MaxTokens != 2000 || req.Temperature != 0.1 || req.TopP != 0.5 {
			t.Errorf("unexpected sampling params %+v", req)
		}

		writeJSON(w, map[string]interface{}{
			"id":    "msg_1",
			"type":  "message",
			"role":  "assistant",
			"model": "claude-test",
			"content": []map[string]string{
				{"type": "text", "text": "こんにちは"},
			},
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 12, "output_tokens": 3},
		})
	}))
	defer server.Close()

	svc := NewAnthropicCompleter(ServiceConfig{APIKey: "test-key", BaseURL: server.URL})

	resp, err := svc.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "Translate to Japanese.",
		UserContent:  "Hello",
		TargetLang:   "jp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "こんにちは" {
		t.Errorf("expected 'こんにちは', got %q", resp.Text)
	}
	if resp.Model != "claude-test" {
		t.Errorf("expected model from response, got %q", resp.Model)
	}
	if resp.Metadata["output_tokens"] != "3" || resp.Metadata["stop_reason"] != "end_turn" {
		t.Errorf("expected usage in metadata, got %v", resp.Metadata)
	}
}

func TestAnthropicCompleter_Complete_NoAPIKey(t *testing.T) {
	svc := NewAnthropicCompleter(ServiceConfig{})

	_, err := svc.Complete(context.Background(), CompletionRequest{UserContent: "Hello"})
	if err == nil {
		t.Error("expected error when no API key")
	}
}

func TestAnthropicCompleter_Complete_APIError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	svc := NewAnthropicCompleter(ServiceConfig{APIKey: "k", BaseURL: server.URL})

	_, err := svc.Complete(context.Background(), CompletionRequest{UserContent: "Hello"})
	if err == nil {
		t.Fatal("expected error for non-OK status")
	}
	if errors.Is(err, ErrMalformedResponse) {
		t.Errorf("status errors are not malformed responses: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestAnthropicCompleter_Complete_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>"},
		{"no text content", `{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"tool_use","id":"t","name":"n","input":{}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewAnthropicCompleter(ServiceConfig{APIKey: "k", BaseURL: server.URL})

			_, err := svc.Complete(context.Background(), CompletionRequest{UserContent: "Hello"})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestAnthropicCompleter_Name(t *testing.T) {
	svc := NewAnthropicCompleter(ServiceConfig{})
	if svc.Name() != "anthropic" {
		t.Errorf("expected 'anthropic', got %q", svc.Name())
	}
	if svc.model != DefaultAnthropicModel {
		t.Errorf("expected default model, got %q", svc.model)
	}
}

func TestOpenAICompleter_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		msgs := req["messages"].([]interface{})
		if len(msgs) != 2 {
			t.Errorf("expected system and user messages, got %d", len(msgs))
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-test",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": "안녕하세요"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
		})
	}))
	defer server.Close()

	svc := NewOpenAICompleter(ServiceConfig{APIKey: "k", BaseURL: server.URL, Model: "gpt-test"})

	resp, err := svc.Complete(context.Background(), CompletionRequest{SystemPrompt: "sys", UserContent: "Hello", TargetLang: "ko"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "안녕하세요" {
		t.Errorf("expected '안녕하세요', got %q", resp.Text)
	}
	if resp.Metadata["finish_reason"] != "stop" {
		t.Errorf("expected finish reason in metadata, got %v", resp.Metadata)
	}
}

func TestOpenAICompleter_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "x", "choices": []interface{}{}})
	}))
	defer server.Close()

	svc := NewOpenAICompleter(ServiceConfig{APIKey: "k", BaseURL: server.URL})

	_, err := svc.Complete(context.Background(), CompletionRequest{UserContent: "Hello"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGeminiCompleter_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			SystemInstruction struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 || req.Contents[0].Parts[0].Text != "Hello" {
			t.Errorf("unexpected contents %+v", req.Contents)
		}
		if len(req.SystemInstruction.Parts) != 1 || req.SystemInstruction.Parts[0].Text != "sys" {
			t.Errorf("unexpected system instruction %+v", req.SystemInstruction)
		}

		writeJSON(w, map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content":      map[string]interface{}{"role": "model", "parts": []map[string]string{{"text": "Bonjour"}}},
					"finishReason": "STOP",
				},
			},
			"usageMetadata": map[string]int{"promptTokenCount": 5, "candidatesTokenCount": 2},
		})
	}))
	defer server.Close()

	svc, err := NewGeminiCompleter(context.Background(), ServiceConfig{APIKey: "k", BaseURL: server.URL, Model: "gemini-test"})
	if err != nil {
		t.Fatalf("NewGeminiCompleter: %v", err)
	}

	resp, err := svc.Complete(context.Background(), CompletionRequest{SystemPrompt: "sys", UserContent: "Hello", TargetLang: "fr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "Bonjour" {
		t.Errorf("expected 'Bonjour', got %q", resp.Text)
	}
	if resp.Metadata["finish_reason"] != "STOP" || resp.Metadata["completion_tokens"] != "2" {
		t.Errorf("unexpected metadata %v", resp.Metadata)
	}
}

func TestGeminiCompleter_Complete_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	svc, err := NewGeminiCompleter(context.Background(), ServiceConfig{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGeminiCompleter: %v", err)
	}

	_, err = svc.Complete(context.Background(), CompletionRequest{UserContent: "Hello"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGeminiCompleter_NoAPIKey(t *testing.T) {
	if _, err := NewGeminiCompleter(context.Background(), ServiceConfig{}); err == nil {
		t.Error("expected error when no API key")
	}
}

func TestGoogleCompleter_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v2") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req struct {
			Q      []string `json:"q"`
			Target string   `json:"target"`
			Format string   `json:"format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Q) != 1 || req.Q[0] != "Hello" {
			t.Errorf("unexpected query %v", req.Q)
		}
		if req.Target != "ja" {
			t.Errorf("expected jp to map to ja, got %q", req.Target)
		}
		if req.Format != "text" {
			t.Errorf("expected text format, got %q", req.Format)
		}

		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"translations": []map[string]string{
					{"translatedText": "こんにちは", "detectedSourceLanguage": "en"},
				},
			},
		})
	}))
	defer server.Close()

	svc, err := NewGoogleCompleter(context.Background(), ServiceConfig{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGoogleCompleter: %v", err)
	}
	defer svc.Close()

	resp, err := svc.Complete(context.Background(), CompletionRequest{UserContent: "Hello", TargetLang: "jp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "こんにちは" {
		t.Errorf("expected 'こんにちは', got %q", resp.Text)
	}
	if resp.Metadata["detected_source"] != "en" {
		t.Errorf("expected detected source in metadata, got %v", resp.Metadata)
	}
}

func TestGoogleCompleter_Complete_NoTranslations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"data": map[string]interface{}{"translations": []interface{}{}}})
	}))
	defer server.Close()

	svc, err := NewGoogleCompleter(context.Background(), ServiceConfig{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGoogleCompleter: %v", err)
	}
	defer svc.Close()

	_, err = svc.Complete(context.Background(), CompletionRequest{UserContent: "Hello", TargetLang: "ko"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestNewCompleter(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"", "anthropic", "openai", "echo"} {
		c, err := NewCompleter(ctx, ServiceConfig{Backend: name, APIKey: "k"})
		if err != nil {
			t.Errorf("NewCompleter(%q): %v", name, err)
			continue
		}
		want := name
		if want == "" {
			want = "anthropic"
		}
		if c.Name() != want {
			t.Errorf("NewCompleter(%q).Name() = %q", name, c.Name())
		}
	}

	if _, err := NewCompleter(ctx, ServiceConfig{Backend: "babelfish"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := NewCompleter(ctx, ServiceConfig{Backend: "gemini"}); err == nil {
		t.Error("expected error for gemini without API key")
	}
}
