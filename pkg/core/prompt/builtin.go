package prompt

// Prompt IDs used by the pipeline.
const (
	TransformID      = "kreditlab.transform"
	TransformRetryID = "kreditlab.transform_retry"
)

const transformSystem = `You are a credit analyst converting extracted financial statements into KreditLab JSON.
Return one JSON object with the root sections _schema_info, company_info,
statement_of_comprehensive_income, statement_of_financial_position, financial_ratios,
working_capital_analysis, funding_mismatch_analysis, funding_profile, tnw_analysis,
dscr_analysis, integrity_check, analysis_summary and report_footer.
Set _schema_info.version to "v7.7" and _schema_info.currency_unit to the statement currency.
Key periods as fy2023, fy2024 or ytd_jun2024 and describe each in company_info.periods_analyzed
with a source suffix: "(Audited)", "(MA)" or "(Unaudited)".
Line items carry {"display_name": ..., "values": {period: number|null}}. Use null for figures
not reported, never 0. Negative figures are plain negative numbers.`

const transformUser = `Convert the following extracted financial statement content to KreditLab JSON. Return ONLY valid JSON with no markdown, no backticks, and no commentary.

full_text_with_tables:
{{.FullText}}

tables_json:
{{.TablesJSON}}`

const transformRetryUser = `The previous response was invalid: {{.Error}}. Return JSON only and fix schema/JSON issues. Do not include markdown or explanation.

Source data:
{{.Base}}`

func builtins() []*Template {
	return []*Template{
		{
			ID:          TransformID,
			Name:        "KreditLab transform",
			Category:    "kreditlab",
			Description: "Extraction output to KreditLab financial model JSON",
			System:      transformSystem,
			User:        transformUser,
			Variables: []Variable{
				{Name: "FullText", Type: "string", Required: true},
				{Name: "TablesJSON", Type: "string", Required: true},
			},
			Version: "builtin",
		},
		{
			ID:          TransformRetryID,
			Name:        "KreditLab transform retry",
			Category:    "kreditlab",
			Description: "Corrective prompt after an invalid transform response",
			System:      transformSystem,
			User:        transformRetryUser,
			Variables: []Variable{
				{Name: "Error", Type: "string", Required: true},
				{Name: "Base", Type: "string", Required: true},
			},
			Version: "builtin",
		},
	}
}
