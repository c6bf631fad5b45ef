package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_report/pkg/core/llm"
)

type recordingProvider struct {
	name    string
	options map[string]interface{}
}

func (p *recordingProvider) GenerateResponse(_ context.Context, prompt, _ string, options map[string]interface{}) (string, error) {
	p.options = options
	return p.name + ":" + prompt, nil
}

func (p *recordingProvider) AdaptInstructions(raw string) string { return raw }

func TestManagerRouting(t *testing.T) {
	anthropic := &recordingProvider{name: "anthropic"}
	gemini := &recordingProvider{name: "gemini"}
	m := NewManager(Config{
		ActiveProvider: "anthropic",
		Agents: map[string]AgentConfig{
			"review":       {Provider: "gemini"},
			TransformAgent: {Options: map[string]interface{}{llm.OptMaxTokens: 4096, llm.OptModel: "from-config"}},
		},
	}, map[string]llm.Provider{"anthropic": anthropic, "gemini": gemini})

	out, err := m.ExecutePrompt(context.Background(), TransformAgent, "p", "s", map[string]interface{}{llm.OptModel: "from-caller"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic:p", out)
	assert.Equal(t, 4096, anthropic.options[llm.OptMaxTokens])
	assert.Equal(t, "from-caller", anthropic.options[llm.OptModel], "caller options win")

	out, err = m.ExecutePrompt(context.Background(), "review", "p", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini:p", out)
}

func TestManagerSwitch(t *testing.T) {
	m := NewManager(Config{}, map[string]llm.Provider{
		"gemini":    &recordingProvider{name: "gemini"},
		"anthropic": &recordingProvider{name: "anthropic"},
	})
	assert.Equal(t, "anthropic", m.GetActiveProvider(), "empty config picks the first sorted name")
	assert.Equal(t, []string{"anthropic", "gemini"}, m.Available())

	require.NoError(t, m.SetGlobalProvider("gemini"))
	assert.Equal(t, "gemini", m.GetActiveProvider())
	assert.Error(t, m.SetGlobalProvider("openai"))
}

func TestManagerNoProviders(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "anthropic"}, map[string]llm.Provider{})
	_, err := m.GetProvider(TransformAgent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_PROVIDER_UNAVAILABLE")
}
