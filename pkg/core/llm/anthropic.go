package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-sonnet-latest"

// AnthropicProvider implements Provider with the Anthropic Messages API.
type AnthropicProvider struct {
	APIKey    string
	Model     string
	MaxTokens int
}

var _ Provider = (*AnthropicProvider)(nil)

// GenerateResponse sends one user message with the system prompt and returns
// the concatenated text blocks of the reply. Temperature defaults to 0.
func (p *AnthropicProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY_MISSING: set ANTHROPIC_API_KEY")
	}

	model := optString(options, OptModel, p.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}
	maxTokens := optInt(options, OptMaxTokens, p.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(option.WithAPIKey(p.APIKey))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(optFloat(options, OptTemperature, 0)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("ANTHROPIC_API_CALL_ERROR: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("ANTHROPIC_EMPTY_RESPONSE: model=%s", model)
	}
	return text.String(), nil
}

func (p *AnthropicProvider) AdaptInstructions(raw string) string {
	return raw
}
