package llm

import (
	"context"
	"fmt"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// Option keys understood by every provider.
const (
	OptModel       = "model"
	OptMaxTokens   = "max_tokens"
	OptTemperature = "temperature"
)

// New builds the provider named by name ("anthropic" or "gemini").
func New(name, apiKey, model string, maxTokens int) (Provider, error) {
	switch name {
	case "anthropic", "":
		return &AnthropicProvider{APIKey: apiKey, Model: model, MaxTokens: maxTokens}, nil
	case "gemini":
		return &GeminiProvider{APIKey: apiKey, Model: model, MaxTokens: maxTokens}, nil
	}
	return nil, fmt.Errorf("LLM_PROVIDER_UNKNOWN: %s", name)
}

func optString(options map[string]interface{}, key, def string) string {
	if v, ok := options[key].(string); ok && v != "" {
		return v
	}
	return def
}

func optInt(options map[string]interface{}, key string, def int) int {
	switch v := options[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	}
	return def
}

func optFloat(options map[string]interface{}, key string, def float64) float64 {
	switch v := options[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

// MockProvider replays canned responses for tests. Calls records every
// prompt it received.
type MockProvider struct {
	GenerateFunc func(ctx context.Context, prompt, systemPrompt string) (string, error)
	Calls        []string
}

var _ Provider = (*MockProvider)(nil)

func (m *MockProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, _ map[string]interface{}) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.GenerateFunc == nil {
		return "", fmt.Errorf("MOCK_NOT_CONFIGURED")
	}
	return m.GenerateFunc(ctx, prompt, systemPrompt)
}

func (m *MockProvider) AdaptInstructions(raw string) string { return raw }
