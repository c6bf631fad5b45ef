package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_report/pkg/models"
)

func parse(t *testing.T, s string) models.Node {
	t.Helper()
	doc, err := models.ParseDocument([]byte(s))
	require.NoError(t, err)
	return doc.Node
}

func TestClassifyExplicitVersion(t *testing.T) {
	tests := []struct {
		version string
		want    Tag
	}{
		{"v7.9.1-beta", V7_7},
		{"v7.8", V7_7},
		{"v7.6", V7_7},
		{"v7.5.0", V7_7},
		{"v7.4", V7_2},
		{"v7.3", V7_2},
		{"v7.2", V7_2},
		{"v7.1", V7_1},
		{"v6.19", V6_19},
		{"v6.13", V6_13},
		{"v6.12", V6_12},
		{"v6.10", V6_11},
		{"v6.9", V6_11},
		{"v6.4", V6_5},
		{"v6.3", V6_3},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			// Deliberately malformed body: the declared version is authoritative.
			doc := parse(t, `{"_schema_info":{"version":"`+tt.version+`"}}`)
			assert.Equal(t, tt.want, Classify(doc))
		})
	}
}

func TestClassifyUnknownVersionFallsBackToHeuristics(t *testing.T) {
	doc := parse(t, `{"_schema_info":{"version":"v5.0"},"company_info":{},"statement_of_comprehensive_income":{}}`)
	assert.Equal(t, V6_0, Classify(doc))
}

func TestClassifyHeuristics(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Tag
	}{
		{
			"dual value ratios",
			`{"company_info":{},"statement_of_comprehensive_income":{},
			  "financial_ratios":{"efficiency_ratios":{"debtor_days":{"values_standard":{},"values_period_adjusted":{}}}}}`,
			V7_2,
		},
		{
			"ccc primary with month labels",
			`{"company_info":{"periods_analyzed":{"fy2024":"FY Dec 2024 (Audited)"}},"statement_of_comprehensive_income":{},
			  "working_capital_analysis":{"working_capital_assessment":{"ccc_status":"Adequate","owc_status":"Tight"}},
			  "dscr_analysis":{"assessment":"ok"}}`,
			V6_19,
		},
		{
			"ccc primary with interpretation falls to dscr",
			`{"company_info":{"periods_analyzed":{"fy2024":"FY Dec 2024 (Audited)"}},"statement_of_comprehensive_income":{},
			  "working_capital_analysis":{"operating_working_capital":{"interpretation":{}},
			    "working_capital_assessment":{"ccc_status":"Adequate","owc_status":"Tight"}},
			  "dscr_analysis":{"assessment":"ok"}}`,
			V6_16,
		},
		{
			"dscr assessment without month",
			`{"company_info":{"periods_analyzed":{"fy2024":"FY2024 (Audited)"}},"statement_of_comprehensive_income":{},
			  "dscr_analysis":{"assessment":"ok"}}`,
			V6_15,
		},
		{
			"pbt margin",
			`{"company_info":{},"statement_of_comprehensive_income":{},"financial_ratios":{"profitability_ratios":{"pbt_margin":{}}}}`,
			V6_14,
		},
		{
			"new leverage names",
			`{"company_info":{},"statement_of_comprehensive_income":{},"financial_ratios":{"leverage_ratios":{"liabilities_to_assets":{}}}}`,
			V6_12,
		},
		{
			"ratio formula",
			`{"company_info":{},"statement_of_comprehensive_income":{},"financial_ratios":{"liquidity_ratios":{"current_ratio":{"formula":"CA / CL"}}}}`,
			V6_12,
		},
		{
			"audit opinion",
			`{"company_info":{"audit_opinion":{}},"statement_of_comprehensive_income":{}}`,
			V6_11,
		},
		{
			"source suffix",
			`{"company_info":{"periods_analyzed":{"ytd":"6 months ended 30 Jun 2025 (MA)"}},"statement_of_comprehensive_income":{}}`,
			V6_11,
		},
		{
			"dscr classification",
			`{"company_info":{},"statement_of_comprehensive_income":{},"dscr_analysis":{"calculation":{}}}`,
			V6_5,
		},
		{
			"wc and funding",
			`{"company_info":{},"statement_of_comprehensive_income":{},"working_capital_analysis":{},"funding_mismatch_analysis":{}}`,
			V6_3,
		},
		{"baseline v6", `{"company_info":{},"statement_of_comprehensive_income":{}}`, V6_0},
		{"legacy", `{"company":{},"income_statement":{}}`, V2_1},
		{"unknown", `{"foo":{}}`, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.json)
			got := Classify(doc)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Classify(doc), "classification must be stable")
		})
	}
}

func TestHeuristicEntries(t *testing.T) {
	doc := parse(t, `{"company_info":{},"financial_ratios":{"profitability_ratios":{"pbt_margin":{}}}}`)
	for _, h := range Heuristics {
		tag, ok := h.Test(doc)
		if h.Name == "pbt_margin" {
			assert.True(t, ok)
			assert.Equal(t, V6_14, tag)
			continue
		}
		assert.False(t, ok, h.Name)
	}
}

func TestFamilyTable(t *testing.T) {
	assert.True(t, V7_7.AtLeast(V6_15))
	assert.True(t, V6_15.AtLeast(V6_15))
	assert.False(t, V6_14.AtLeast(V6_15))
	assert.False(t, V2_1.AtLeast(V6_0))
	assert.False(t, Unknown.Known())

	assert.True(t, V7_7.SingleWCR())
	assert.False(t, V7_2.SingleWCR())
	assert.True(t, V7_1.DualValueRatios())
	assert.False(t, V6_0.StrictRequirements())
	assert.True(t, V6_3.StrictRequirements())
	assert.True(t, V6_11.ExpectsAuditOpinion())
	assert.False(t, V6_5.ExpectsAuditOpinion())
}

func TestRequiredSections(t *testing.T) {
	assert.Len(t, RequiredSections(V7_7), 12)
	assert.Len(t, RequiredSections(V6_5), 12)
	assert.Len(t, RequiredSections(V6_3), 11)
	assert.NotContains(t, RequiredSections(V6_3), "dscr_analysis")
	assert.Len(t, RequiredSections(V6_0), 4)
	assert.Contains(t, RequiredSections(V2_1), "metadata")
	assert.Nil(t, RequiredSections(Unknown))

	// Callers get a copy.
	s := RequiredSections(V6_0)
	s[0] = "mutated"
	assert.Equal(t, "company_info", RequiredSections(V6_0)[0])
}
