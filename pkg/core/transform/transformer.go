// Package transform converts Tensorlake extraction output into a KreditLab
// JSON document through an LLM, with a single corrective retry.
package transform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"financial_report/pkg/core/agent"
	"financial_report/pkg/core/extract"
	"financial_report/pkg/core/llm"
	"financial_report/pkg/core/prompt"
	"financial_report/pkg/core/utils"
	"financial_report/pkg/logger"
	"financial_report/pkg/models"
)

// RequiredKeys are the root sections a transform response must carry.
var RequiredKeys = []string{
	"_schema_info",
	"company_info",
	"statement_of_comprehensive_income",
	"statement_of_financial_position",
	"analysis_summary",
}

// Executor runs a prompt for a named agent. *agent.Manager satisfies it.
type Executor interface {
	ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error)
}

var _ Executor = (*agent.Manager)(nil)

// Transformer builds prompts from the registry and validates LLM replies.
type Transformer struct {
	exec    Executor
	prompts *prompt.Registry
	Options map[string]interface{}
}

// New returns a Transformer with temperature 0 and 8192 max tokens.
func New(exec Executor, prompts *prompt.Registry) *Transformer {
	if prompts == nil {
		prompts = prompt.Get()
	}
	return &Transformer{
		exec:    exec,
		prompts: prompts,
		Options: map[string]interface{}{
			llm.OptTemperature: 0.0,
			llm.OptMaxTokens:   8192,
		},
	}
}

// Transform sends the extraction to the LLM. An invalid first reply triggers
// one corrective prompt carrying the error; a second invalid reply fails.
func (t *Transformer) Transform(ctx context.Context, ext *extract.Extraction) (*models.Document, error) {
	tablesJSON, err := ext.TablesJSON()
	if err != nil {
		return nil, fmt.Errorf("LLM_TRANSFORM_FAILED: %w", err)
	}
	base, err := t.render(prompt.TransformID, prompt.Vars{
		"FullText":   ext.FullText,
		"TablesJSON": tablesJSON,
	})
	if err != nil {
		return nil, err
	}
	system, err := t.prompts.System(prompt.TransformID)
	if err != nil {
		return nil, fmt.Errorf("LLM_TRANSFORM_FAILED: %w", err)
	}

	start := time.Now()
	doc, firstErr := t.attempt(ctx, base, system)
	if firstErr == nil {
		logger.L.Info().Dur("elapsed", time.Since(start)).Msg("[TRANSFORM] document produced")
		return doc, nil
	}
	var callErr *callError
	if errors.As(firstErr, &callErr) {
		return nil, callErr.err
	}
	logger.L.Warn().Err(firstErr).Msg("[TRANSFORM] invalid response, retrying with corrective prompt")

	corrective, err := t.render(prompt.TransformRetryID, prompt.Vars{
		"Error": firstErr.Error(),
		"Base":  base,
	})
	if err != nil {
		return nil, err
	}
	doc, err = t.attempt(ctx, corrective, system)
	if err != nil {
		if errors.As(err, &callErr) {
			return nil, callErr.err
		}
		return nil, fmt.Errorf("Claude JSON parse/validation failed after retry: %v", err)
	}
	logger.L.Info().Dur("elapsed", time.Since(start)).Int("attempts", 2).Msg("[TRANSFORM] document produced")
	return doc, nil
}

// callError marks a failed LLM call, which is not retried.
type callError struct{ err error }

func (e *callError) Error() string { return e.err.Error() }

func (t *Transformer) attempt(ctx context.Context, userPrompt, system string) (*models.Document, error) {
	resp, err := t.exec.ExecutePrompt(ctx, agent.TransformAgent, userPrompt, system, t.Options)
	if err != nil {
		return nil, &callError{err: fmt.Errorf("LLM_TRANSFORM_FAILED: %w", err)}
	}
	return ParseResponse(resp)
}

func (t *Transformer) render(id string, vars prompt.Vars) (string, error) {
	tmpl, err := t.prompts.Lookup(id)
	if err != nil {
		return "", fmt.Errorf("LLM_TRANSFORM_FAILED: %w", err)
	}
	out, err := tmpl.Render(vars)
	if err != nil {
		return "", fmt.Errorf("LLM_TRANSFORM_FAILED: %w", err)
	}
	return out, nil
}

// ExtractJSON strips code fences and returns the outermost JSON object.
func ExtractJSON(text string) (string, error) {
	out, err := utils.ExtractJSONObject(text)
	if err != nil {
		return "", errors.New("No JSON object found in Claude response")
	}
	return out, nil
}

// ParseResponse extracts, leniently parses and checks an LLM reply.
func ParseResponse(text string) (*models.Document, error) {
	block, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	parsed, err := utils.SmartParse(block)
	if err != nil {
		return nil, err
	}
	doc, err := models.ParseDocument([]byte(parsed))
	if err != nil {
		return nil, err
	}
	if missing := MissingKeys(doc); len(missing) > 0 {
		return nil, fmt.Errorf("Missing required top-level keys: %s", strings.Join(missing, ", "))
	}
	return doc, nil
}

// MissingKeys lists the absent RequiredKeys, sorted.
func MissingKeys(doc *models.Document) []string {
	var missing []string
	for _, k := range RequiredKeys {
		if !doc.Has(k) {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}
