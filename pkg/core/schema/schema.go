// Package schema classifies financial model documents into canonical schema
// tags and answers which tags share structural behaviour.
package schema

import "strings"

// Tag is a canonical schema generation. Several declared version strings may
// collapse onto one Tag when they render identically.
type Tag string

const (
	Unknown Tag = "unknown"
	V2_1    Tag = "v2.1"
	V6_0    Tag = "v6.0"
	V6_3    Tag = "v6.3"
	V6_5    Tag = "v6.5"
	V6_11   Tag = "v6.11"
	V6_12   Tag = "v6.12"
	V6_13   Tag = "v6.13"
	V6_14   Tag = "v6.14"
	V6_15   Tag = "v6.15"
	V6_16   Tag = "v6.16"
	V6_17   Tag = "v6.17"
	V6_18   Tag = "v6.18"
	V6_19   Tag = "v6.19"
	V7_1    Tag = "v7.1"
	V7_2    Tag = "v7.2"
	V7_7    Tag = "v7.7"
)

// String implements fmt.Stringer.
func (t Tag) String() string { return string(t) }

// =============================================================================
// FAMILY TABLE
// =============================================================================

// traits is the single authoritative description of how a tag behaves.
// Every "which tags belong to X" question in the module reads this table.
type traits struct {
	rank         int  // generation order; 0 for legacy and unknown
	v6Layout     bool // company_info / statement_of_* root keys
	strictReqs   bool // missing required sections are errors, not warnings
	auditOpinion bool // audit_opinion expected in company_info
	singleWCR    bool // WCR carries a single "values" series
	dualValues   bool // efficiency ratios carry standard and period-adjusted series
}

var families = map[Tag]traits{
	V2_1:  {rank: 0},
	V6_0:  {rank: 1, v6Layout: true},
	V6_3:  {rank: 2, v6Layout: true, strictReqs: true},
	V6_5:  {rank: 3, v6Layout: true, strictReqs: true},
	V6_11: {rank: 4, v6Layout: true, strictReqs: true, auditOpinion: true},
	V6_12: {rank: 5, v6Layout: true, strictReqs: true, auditOpinion: true},
	V6_13: {rank: 6, v6Layout: true, strictReqs: true, auditOpinion: true},
	V6_14: {rank: 7, v6Layout: true, strictReqs: true, auditOpinion: true},
	V6_15: {rank: 8, v6Layout: true, strictReqs: true, auditOpinion: true},
	V6_16: {rank: 9, v6Layout: true, strictReqs: true, auditOpinion: true},
	V6_17: {rank: 10, v6Layout: true, strictReqs: true, auditOpinion: true},
	V6_18: {rank: 11, v6Layout: true, strictReqs: true, auditOpinion: true},
	V6_19: {rank: 12, v6Layout: true, strictReqs: true, auditOpinion: true},
	V7_1:  {rank: 13, v6Layout: true, strictReqs: true, auditOpinion: true, dualValues: true},
	V7_2:  {rank: 14, v6Layout: true, strictReqs: true, auditOpinion: true, dualValues: true},
	V7_7:  {rank: 15, v6Layout: true, strictReqs: true, auditOpinion: true, dualValues: true, singleWCR: true},
}

// Known reports whether the tag is a recognised generation.
func (t Tag) Known() bool {
	_, ok := families[t]
	return ok
}

// IsV6Layout reports whether the tag uses the v6+ root section names.
func (t Tag) IsV6Layout() bool { return families[t].v6Layout }

// IsLegacy reports the v2.1 layout.
func (t Tag) IsLegacy() bool { return t == V2_1 }

// AtLeast reports whether t is the same or a later v6+ generation than min.
func (t Tag) AtLeast(min Tag) bool {
	a, ok := families[t]
	b, okMin := families[min]
	if !ok || !okMin || !a.v6Layout {
		return false
	}
	return a.rank >= b.rank
}

// StrictRequirements reports whether missing required sections are errors.
func (t Tag) StrictRequirements() bool { return families[t].strictReqs }

// ExpectsAuditOpinion reports v6.11+ generations.
func (t Tag) ExpectsAuditOpinion() bool { return families[t].auditOpinion }

// SingleWCR reports the v7.7 family (v7.5 … v7.9), where the working capital
// requirement carries one "values" series.
func (t Tag) SingleWCR() bool { return families[t].singleWCR }

// DualValueRatios reports v7.x generations with standard and period-adjusted
// efficiency ratio series.
func (t Tag) DualValueRatios() bool { return families[t].dualValues }

// InV77Family reports tags rendering like v7.7.
func (t Tag) InV77Family() bool { return t == V7_7 }

// =============================================================================
// REQUIRED SECTIONS
// =============================================================================

var (
	requiredV65 = []string{
		"company_info",
		"statement_of_comprehensive_income",
		"statement_of_financial_position",
		"financial_ratios",
		"working_capital_analysis",
		"funding_mismatch_analysis",
		"funding_profile",
		"tnw_analysis",
		"dscr_analysis",
		"integrity_check",
		"analysis_summary",
		"report_footer",
	}
	requiredV63 = []string{
		"company_info",
		"statement_of_comprehensive_income",
		"statement_of_financial_position",
		"financial_ratios",
		"working_capital_analysis",
		"funding_mismatch_analysis",
		"funding_profile",
		"tnw_analysis",
		"integrity_check",
		"analysis_summary",
		"report_footer",
	}
	requiredV6 = []string{
		"company_info",
		"statement_of_comprehensive_income",
		"statement_of_financial_position",
		"financial_ratios",
	}
	requiredV2 = []string{
		"metadata", "company", "periods", "income_statement",
		"balance_sheet", "financial_ratios", "tnw_analysis",
		"integrity_check", "analysis_summary",
	}
)

// RequiredSections returns a copy of the required root sections for a tag,
// or nil for unknown tags.
func RequiredSections(t Tag) []string {
	var src []string
	switch {
	case t == V2_1:
		src = requiredV2
	case t == V6_0:
		src = requiredV6
	case t == V6_3:
		src = requiredV63
	case t.AtLeast(V6_5):
		src = requiredV65
	default:
		return nil
	}
	return append([]string(nil), src...)
}

// =============================================================================
// VERSION PREFIX TABLE
// =============================================================================

type prefixRule struct {
	prefix string
	tag    Tag
}

// Ordered, first match wins. Longer prefixes sit before shorter ones that
// share a stem.
var prefixTable = []prefixRule{
	{"v7.9", V7_7},
	{"v7.8", V7_7},
	{"v7.7", V7_7},
	{"v7.6", V7_7},
	{"v7.5", V7_7},
	{"v7.3", V7_2},
	{"v7.4", V7_2},
	{"v7.2", V7_2},
	{"v7.1", V7_1},
	{"v6.19", V6_19},
	{"v6.18", V6_18},
	{"v6.17", V6_17},
	{"v6.16", V6_16},
	{"v6.15", V6_15},
	{"v6.14", V6_14},
	{"v6.13", V6_13},
	{"v6.12", V6_12},
	{"v6.11", V6_11},
	{"v6.10", V6_11},
	{"v6.9", V6_11},
	{"v6.5", V6_5},
	{"v6.4", V6_5},
	{"v6.3", V6_3},
}

// FromVersion maps a declared version string to its canonical tag.
func FromVersion(version string) (Tag, bool) {
	for _, r := range prefixTable {
		if strings.HasPrefix(version, r.prefix) {
			return r.tag, true
		}
	}
	return Unknown, false
}
