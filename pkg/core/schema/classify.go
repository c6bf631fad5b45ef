package schema

import (
	"regexp"
	"strings"

	"financial_report/pkg/models"
)

// monthLabel matches v6.16+ period descriptions such as "FY Dec 2024".
var monthLabel = regexp.MustCompile(`FY\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4}`)

// SourceSuffixes are the period description tokens naming the source type.
var SourceSuffixes = []string{"(Audited", "(MA)", "(Unaudited"}

// Heuristic is one structural marker test. Tag returns the detected tag and
// true when the marker is present.
type Heuristic struct {
	Name string
	Test func(doc models.Node) (Tag, bool)
}

// Heuristics is the ordered chain run for documents without a declared
// version. Later generations are supersets of earlier markers, so the most
// specific marker is tested first.
var Heuristics = []Heuristic{
	{"dual_value_ratios", dualValueRatios},
	{"ccc_primary_assessment", cccPrimaryAssessment},
	{"dscr_assessment", dscrAssessment},
	{"pbt_margin", pbtMargin},
	{"new_leverage_names", newLeverageNames},
	{"ratio_formulas", ratioFormulas},
	{"audit_opinion", auditOpinion},
	{"source_suffix", sourceSuffix},
	{"dscr_classification", dscrClassification},
	{"wc_and_funding", wcAndFunding},
}

// Classify returns the canonical schema tag of a document. A declared
// _schema_info.version with a known prefix is authoritative.
func Classify(doc models.Node) Tag {
	if tag, ok := FromVersion(doc.Path("_schema_info", "version").Str()); ok {
		return tag
	}

	if doc.Has("company_info") && doc.Has("statement_of_comprehensive_income") {
		for _, h := range Heuristics {
			if tag, ok := h.Test(doc); ok {
				return tag
			}
		}
		return V6_0
	}
	if doc.Has("company") && doc.Has("income_statement") {
		return V2_1
	}
	return Unknown
}

// =============================================================================
// HEURISTICS
// =============================================================================

func dualValueRatios(doc models.Node) (Tag, bool) {
	dd := doc.Path("financial_ratios", "efficiency_ratios", "debtor_days")
	if dd.Has("values_standard") && dd.Has("values_period_adjusted") {
		return V7_2, true
	}
	return "", false
}

func cccPrimaryAssessment(doc models.Node) (Tag, bool) {
	wca := doc.Get("working_capital_analysis")
	assess := wca.Get("working_capital_assessment")
	if !assess.Get("ccc_status").Truthy() || !assess.Get("owc_status").Truthy() {
		return "", false
	}
	if wca.Get("operating_working_capital").Has("interpretation") ||
		wca.Get("working_capital_requirement").Has("calculation_details") {
		return "", false
	}
	if hasMonthLabels(doc) {
		return V6_19, true
	}
	return "", false
}

func dscrAssessment(doc models.Node) (Tag, bool) {
	dscr := doc.Get("dscr_analysis")
	if !dscr.IsObject() || !dscr.Has("assessment") {
		return "", false
	}
	if hasMonthLabels(doc) {
		return V6_16, true
	}
	return V6_15, true
}

func pbtMargin(doc models.Node) (Tag, bool) {
	if doc.Path("financial_ratios", "profitability_ratios").Has("pbt_margin") {
		return V6_14, true
	}
	return "", false
}

func newLeverageNames(doc models.Node) (Tag, bool) {
	lev := doc.Path("financial_ratios", "leverage_ratios")
	if lev.Has("liabilities_to_equity") || lev.Has("liabilities_to_assets") {
		return V6_12, true
	}
	return "", false
}

func ratioFormulas(doc models.Node) (Tag, bool) {
	found := false
	doc.Get("financial_ratios").Each(func(_ string, cat models.Node) bool {
		if !cat.IsObject() {
			return true
		}
		cat.Each(func(_ string, ratio models.Node) bool {
			if ratio.IsObject() && ratio.Has("formula") {
				found = true
			}
			return !found
		})
		return !found
	})
	if found {
		return V6_12, true
	}
	return "", false
}

func auditOpinion(doc models.Node) (Tag, bool) {
	if doc.Get("company_info").Has("audit_opinion") {
		return V6_11, true
	}
	return "", false
}

func sourceSuffix(doc models.Node) (Tag, bool) {
	for _, desc := range periodDescriptions(doc) {
		if HasSourceSuffix(desc) {
			return V6_11, true
		}
	}
	return "", false
}

func dscrClassification(doc models.Node) (Tag, bool) {
	dscr := doc.Get("dscr_analysis")
	if dscr.Has("facility_classification") || dscr.Has("calculation") {
		return V6_5, true
	}
	return "", false
}

func wcAndFunding(doc models.Node) (Tag, bool) {
	if doc.Has("working_capital_analysis") && doc.Has("funding_mismatch_analysis") {
		return V6_3, true
	}
	return "", false
}

// =============================================================================
// HELPERS
// =============================================================================

// HasSourceSuffix reports whether a period description names its source type.
func HasSourceSuffix(desc string) bool {
	for _, s := range SourceSuffixes {
		if strings.Contains(desc, s) {
			return true
		}
	}
	return false
}

func hasMonthLabels(doc models.Node) bool {
	for _, desc := range periodDescriptions(doc) {
		if monthLabel.MatchString(desc) {
			return true
		}
	}
	return false
}

// periodDescriptions returns the string descriptions of periods_analyzed in
// source order.
func periodDescriptions(doc models.Node) []string {
	var out []string
	doc.Path("company_info", "periods_analyzed").Each(func(_ string, v models.Node) bool {
		if v.IsString() {
			out = append(out, v.Str())
		}
		return true
	})
	return out
}
