package transform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_report/pkg/core/agent"
	"financial_report/pkg/core/extract"
	"financial_report/pkg/core/llm"
	"financial_report/pkg/core/prompt"
)

const validDoc = `{
  "_schema_info": {"version": "v7.7"},
  "company_info": {"company_name": "Acme Sdn Bhd"},
  "statement_of_comprehensive_income": {},
  "statement_of_financial_position": {},
  "analysis_summary": {}
}`

func newTransformer(mock *llm.MockProvider) *Transformer {
	mgr := agent.NewManager(agent.Config{}, map[string]llm.Provider{"mock": mock})
	return New(mgr, prompt.NewRegistry())
}

func sampleExtraction() *extract.Extraction {
	return &extract.Extraction{
		FullText: "\n\n===== PAGE 1 =====\n\nRevenue 1,200\n\n",
		Tables:   []extract.Table{{Page: 1, Index: 1, Rows: []map[string]interface{}{{"name": "Revenue", "year_2024": 1200}}}},
	}
}

func TestTransformFirstAttempt(t *testing.T) {
	mock := &llm.MockProvider{GenerateFunc: func(_ context.Context, p, sys string) (string, error) {
		assert.Contains(t, sys, "KreditLab JSON")
		return "```json\n" + validDoc + "\n```", nil
	}}

	doc, err := newTransformer(mock).Transform(context.Background(), sampleExtraction())
	require.NoError(t, err)
	assert.Equal(t, "Acme Sdn Bhd", doc.Path("company_info", "company_name").Str())

	require.Len(t, mock.Calls, 1)
	assert.True(t, strings.HasPrefix(mock.Calls[0], "Convert the following extracted financial statement content to KreditLab JSON."))
	assert.Contains(t, mock.Calls[0], "Revenue 1,200")
	assert.Contains(t, mock.Calls[0], `"year_2024": 1200`)
}

func TestTransformRetriesOnce(t *testing.T) {
	replies := []string{`{"_schema_info": {}, "company_info": {}}`, validDoc}
	mock := &llm.MockProvider{GenerateFunc: func(context.Context, string, string) (string, error) {
		r := replies[0]
		replies = replies[1:]
		return r, nil
	}}

	doc, err := newTransformer(mock).Transform(context.Background(), sampleExtraction())
	require.NoError(t, err)
	assert.True(t, doc.Has("analysis_summary"))

	require.Len(t, mock.Calls, 2)
	assert.True(t, strings.HasPrefix(mock.Calls[1],
		"The previous response was invalid: Missing required top-level keys: analysis_summary, statement_of_comprehensive_income, statement_of_financial_position. Return JSON only"))
	assert.Contains(t, mock.Calls[1], "Source data:\n"+mock.Calls[0])
}

func TestTransformFailsAfterRetry(t *testing.T) {
	mock := &llm.MockProvider{GenerateFunc: func(context.Context, string, string) (string, error) {
		return "I cannot help with that.", nil
	}}

	_, err := newTransformer(mock).Transform(context.Background(), sampleExtraction())
	assert.EqualError(t, err, "Claude JSON parse/validation failed after retry: No JSON object found in Claude response")
	assert.Len(t, mock.Calls, 2)
}

func TestTransformCallErrorNotRetried(t *testing.T) {
	mock := &llm.MockProvider{GenerateFunc: func(context.Context, string, string) (string, error) {
		return "", errors.New("rate limited")
	}}

	_, err := newTransformer(mock).Transform(context.Background(), sampleExtraction())
	assert.EqualError(t, err, "LLM_TRANSFORM_FAILED: rate limited")
	assert.Len(t, mock.Calls, 1)
}

func TestParseResponse(t *testing.T) {
	// trailing comma and single quotes are repaired
	doc, err := ParseResponse(`Here you go: {'_schema_info': {}, "company_info": {}, "statement_of_comprehensive_income": {},
		"statement_of_financial_position": {}, "analysis_summary": {},}`)
	require.NoError(t, err)
	assert.True(t, doc.Has("statement_of_financial_position"))

	_, err = ParseResponse("no braces here")
	assert.EqualError(t, err, "No JSON object found in Claude response")

	_, err = ParseResponse(`{"company_info": {}}`)
	assert.EqualError(t, err, "Missing required top-level keys: _schema_info, analysis_summary, statement_of_comprehensive_income, statement_of_financial_position")
}
