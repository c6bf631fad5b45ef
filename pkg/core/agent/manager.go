// Package agent routes named pipeline agents (such as the JSON transformer)
// to an LLM provider and lets the active provider be switched at runtime.
package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"financial_report/pkg/core/llm"
	"financial_report/pkg/logger"
)

// TransformAgent is the agent that converts extraction output to JSON.
const TransformAgent = "transform"

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string                 `yaml:"provider"` // Optional override
	Description string                 `yaml:"description"`
	Options     map[string]interface{} `yaml:"options"`
}

type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

// NewManager registers the given providers. An empty ActiveProvider selects
// the first registered name in sorted order.
func NewManager(config Config, providers map[string]llm.Provider) *Manager {
	m := &Manager{config: config, providers: providers}
	if _, ok := providers[m.config.ActiveProvider]; !ok {
		names := m.Available()
		if len(names) > 0 {
			m.config.ActiveProvider = names[0]
		}
	}
	return m
}

// GetProvider resolves the provider for an agent: agent override, then the
// active provider.
func (m *Manager) GetProvider(agentType string) (llm.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p, nil
		}
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("LLM_PROVIDER_UNAVAILABLE: agent=%s active=%s", agentType, m.config.ActiveProvider)
}

// ExecutePrompt adapts the system prompt for the agent's provider and runs
// it. Per-agent options are merged under the caller's.
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	provider, err := m.GetProvider(agentType)
	if err != nil {
		return "", err
	}

	merged := map[string]interface{}{}
	m.mu.RLock()
	for k, v := range m.config.Agents[agentType].Options {
		merged[k] = v
	}
	m.mu.RUnlock()
	for k, v := range options {
		merged[k] = v
	}

	logger.L.Debug().Str("agent", agentType).Str("provider", fmt.Sprintf("%T", provider)).Msg("[AGENT] executing prompt")
	return provider.GenerateResponse(ctx, rawPrompt, provider.AdaptInstructions(rawSystemPrompt), merged)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	logger.L.Info().Str("provider", newProvider).Msg("[AGENT] global provider switched")
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Available lists the registered provider names.
func (m *Manager) Available() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
