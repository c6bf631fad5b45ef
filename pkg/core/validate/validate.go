// Package validate checks financial model documents against the mandatory
// and recommended field rules of their schema generation, and surfaces the
// balance sheet integrity flags the document reports about itself.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/core/schema"
	"financial_report/pkg/models"
)

// Result is the outcome of a structural validation. OK is true iff Errors is
// empty. Errors block rendering; Warnings never do.
type Result struct {
	Schema   schema.Tag `json:"schema"`
	OK       bool       `json:"ok"`
	Errors   []string   `json:"errors"`
	Warnings []string   `json:"warnings"`
}

// ValidationError carries every hard error of a rejected document.
type ValidationError struct {
	Schema schema.Tag
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("VALIDATION_FAILED: schema=%s: %s", e.Schema, strings.Join(e.Errors, "; "))
}

// Err returns a *ValidationError when the result has errors, else nil.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &ValidationError{Schema: r.Schema, Errors: append([]string(nil), r.Errors...)}
}

// =============================================================================
// RULES
// =============================================================================

// rule is one independent check. Rules never short-circuit each other so a
// single pass reports every problem.
type rule struct {
	name    string
	applies func(schema.Tag) bool
	check   func(c *checkCtx)
}

type checkCtx struct {
	doc      models.Node
	tag      schema.Tag
	res      *resolve.Resolver
	errors   []string
	warnings []string
}

func (c *checkCtx) errorf(format string, args ...interface{}) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *checkCtx) warnf(format string, args ...interface{}) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func always(schema.Tag) bool { return true }

func from(min schema.Tag) func(schema.Tag) bool {
	return func(t schema.Tag) bool { return t.AtLeast(min) }
}

var rules = []rule{
	{"required_sections", always, checkRequiredSections},
	{"company_name", always, checkCompanyName},
	{"periods", always, checkPeriods},
	{"report_footer", always, checkReportFooter},
	{"audit_opinion", schema.Tag.ExpectsAuditOpinion, checkAuditOpinion},
	{"source_suffix", always, checkSourceSuffix},
	{"restatement", schema.Tag.InV77Family, checkRestatement},
	{"dscr_assessment", from(schema.V6_15), checkDSCRAssessment},
	{"risk_flags", from(schema.V6_15), checkRiskFlags},
	{"profitability_ratios", from(schema.V6_15), checkProfitabilityRatios},
	{"facility_concerns", from(schema.V6_15), checkFacilityConcerns},
	{"month_labels", from(schema.V6_16), checkMonthLabels},
	{"deprecated_wc_fields", from(schema.V6_17), checkDeprecatedWCFields},
	{"wc_assessment", from(schema.V6_17), checkWCAssessment},
	{"efficiency_dual_values", schema.Tag.DualValueRatios, checkEfficiencyDualValues},
	{"wcr_shape", schema.Tag.DualValueRatios, checkWCRShape},
}

// Validate checks a document against the rules of its classified tag.
func Validate(doc models.Node, tag schema.Tag) Result {
	if !tag.Known() {
		return Result{
			Schema:   tag,
			OK:       false,
			Errors:   []string{"Unknown schema version - cannot validate structure"},
			Warnings: []string{},
		}
	}

	c := &checkCtx{doc: doc, tag: tag, res: resolve.New(doc, tag)}
	for _, r := range rules {
		if r.applies(tag) {
			r.check(c)
		}
	}

	if c.errors == nil {
		c.errors = []string{}
	}
	if c.warnings == nil {
		c.warnings = []string{}
	}
	return Result{Schema: tag, OK: len(c.errors) == 0, Errors: c.errors, Warnings: c.warnings}
}

// =============================================================================
// CHECKS
// =============================================================================

var monthToken = regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)`)

func checkRequiredSections(c *checkCtx) {
	for _, s := range schema.RequiredSections(c.tag) {
		if c.doc.Has(s) {
			continue
		}
		if c.tag.StrictRequirements() {
			c.errorf("Missing required section: '%s'", s)
		} else {
			c.warnf("Missing section (optional in %s): '%s'", c.tag, s)
		}
	}
}

func checkCompanyName(c *checkCtx) {
	if c.res.CompanyName("") == "" {
		c.warnf("Missing company name")
	}
}

func checkPeriods(c *checkCtx) {
	if len(c.res.PeriodKeys()) == 0 {
		c.errorf("No valid periods found")
	}
}

func checkReportFooter(c *checkCtx) {
	if !c.doc.Has("report_footer") {
		c.warnf("Missing report_footer section (required in v6.5+)")
	}
}

func checkAuditOpinion(c *checkCtx) {
	opinions := c.res.CompanyInfo().Get("audit_opinion")
	if !opinions.Truthy() {
		c.warnf("Missing audit_opinion in company_info (recommended in v6.11+)")
		return
	}
	concerns := c.doc.Path("analysis_summary", "areas_of_concern").Array()
	opinions.Each(func(pk string, op models.Node) bool {
		if !op.IsObject() {
			return true
		}
		typ := op.Get("opinion_type").Str()
		if typ != "Qualified" && typ != "Adverse" && typ != "Disclaimer" {
			return true
		}
		needle := strings.ToLower(typ)
		flagged := false
		for _, concern := range concerns {
			text := strings.ToLower(concern.Raw())
			if concern.IsString() {
				text = strings.ToLower(concern.Str())
			}
			if strings.Contains(text, needle) || strings.Contains(text, "audit") {
				flagged = true
				break
			}
		}
		if !flagged {
			c.warnf("%s: %s opinion should be flagged in areas_of_concern", pk, typ)
		}
		return true
	})
}

// periodDescriptions yields string descriptions of periods_analyzed.
func (c *checkCtx) periodDescriptions(fn func(pk, desc string)) {
	c.res.CompanyInfo().Get("periods_analyzed").Each(func(pk string, v models.Node) bool {
		if v.IsString() {
			fn(pk, v.Str())
		}
		return true
	})
}

func checkSourceSuffix(c *checkCtx) {
	c.periodDescriptions(func(pk, desc string) {
		if !schema.HasSourceSuffix(desc) {
			c.warnf("Period '%s' missing source type suffix (Audited/MA/Unaudited)", pk)
		}
	})
}

func checkRestatement(c *checkCtx) {
	restated := false
	c.periodDescriptions(func(_, desc string) {
		if strings.Contains(desc, "Restated") {
			restated = true
		}
	})
	if !restated {
		return
	}
	pya := c.res.CompanyInfo().Get("prior_year_adjustments")
	if !pya.Truthy() || !pya.Get("has_restatement").Truthy() {
		c.warnf("v7.7: Period labelled 'Restated' but prior_year_adjustments.has_restatement is false or missing")
	}
}

func checkDSCRAssessment(c *checkCtx) {
	dscr := c.doc.Get("dscr_analysis")
	if dscr.Truthy() && !dscr.Get("assessment").Truthy() {
		c.warnf("dscr_analysis.assessment is MANDATORY in v6.15+ (missing)")
	}
}

func checkRiskFlags(c *checkCtx) {
	fsa := c.doc.Path("funding_mismatch_analysis", "funding_structure_assessment")
	rating := fsa.Get("overall_sustainability_rating").Str()
	if rating != "" && rating != "Sustainable" && !fsa.Get("risk_flags").Truthy() {
		c.warnf("risk_flags empty but sustainability rating is '%s' (should be populated)", rating)
	}
}

// ProfitabilityRatios are the seven ratios mandatory from v6.15.
var ProfitabilityRatios = []string{
	"gross_profit_margin", "operating_profit_margin", "pbt_margin",
	"net_profit_margin", "ebitda_margin", "roa", "roe",
}

func checkProfitabilityRatios(c *checkCtx) {
	prof := c.doc.Path("financial_ratios", "profitability_ratios")
	for _, r := range ProfitabilityRatios {
		if !prof.Has(r) {
			c.warnf("Missing mandatory profitability ratio: %s", r)
		}
	}
}

func checkFacilityConcerns(c *checkCtx) {
	fss := c.doc.Path("analysis_summary", "facility_suitability_summary")
	appropriate := fss.Get("existing_facilities_appropriate")
	if appropriate.IsBool() {
		if v, _ := appropriate.Bool(); !v && !fss.Get("existing_facility_concerns").Truthy() {
			c.warnf("existing_facility_concerns MANDATORY when existing_facilities_appropriate = false")
		}
	}
}

func checkMonthLabels(c *checkCtx) {
	c.periodDescriptions(func(pk, desc string) {
		if (strings.Contains(desc, "(Audited") || strings.Contains(desc, "(MA)")) && !monthToken.MatchString(desc) {
			c.warnf("Period '%s' label should include month (v6.16+ rule): '%s'", pk, desc)
		}
	})
}

func checkDeprecatedWCFields(c *checkCtx) {
	wca := c.doc.Get("working_capital_analysis")
	owc := wca.Get("operating_working_capital")
	wcr := wca.Get("working_capital_requirement")
	if owc.Has("interpretation") {
		c.warnf("v6.18: operating_working_capital.interpretation should be REMOVED (per-period narratives deprecated)")
	}
	if wcr.Has("interpretation") {
		c.warnf("v6.18: working_capital_requirement.interpretation should be REMOVED (per-period narratives deprecated)")
	}
	if wcr.Has("calculation_details") {
		c.warnf("v6.18: working_capital_requirement.calculation_details should be REMOVED (redundant breakdown deprecated)")
	}
}

func checkWCAssessment(c *checkCtx) {
	assess := c.doc.Path("working_capital_analysis", "working_capital_assessment")
	if !assess.Truthy() {
		return
	}
	if !assess.Get("ccc_status").Truthy() {
		c.warnf("v6.18: working_capital_assessment.ccc_status is recommended (CCC is PRIMARY driver)")
	}
	if !assess.Get("owc_status").Truthy() {
		c.warnf("v6.18: working_capital_assessment.owc_status is recommended (OWC is SUPPORTING indicator)")
	}
	if !assess.Get("rationale").Truthy() {
		c.warnf("v6.18: working_capital_assessment.rationale is MANDATORY")
	}
}

// EfficiencyDualRatios are the day-count ratios carrying dual series in v7.x.
var EfficiencyDualRatios = []string{"debtor_days", "creditor_days", "inventory_days", "cash_conversion_cycle"}

func checkEfficiencyDualValues(c *checkCtx) {
	eff := c.doc.Path("financial_ratios", "efficiency_ratios")
	for _, rk := range EfficiencyDualRatios {
		item := eff.Get(rk)
		if !item.Truthy() {
			continue
		}
		if !item.Has("values") {
			c.warnf("v7.2: efficiency_ratios.%s missing 'values' field (backward compatibility)", rk)
		}
		for _, f := range []string{"values_standard", "values_period_adjusted", "period_days"} {
			if !item.Has(f) {
				c.warnf("v7.2: efficiency_ratios.%s missing '%s' field", rk, f)
			}
		}
	}
}

func checkWCRShape(c *checkCtx) {
	wcr := c.doc.Path("working_capital_analysis", "working_capital_requirement")
	if !wcr.Truthy() {
		return
	}
	if c.tag.SingleWCR() {
		if !wcr.Has("values") {
			c.warnf("v7.7: working_capital_requirement missing 'values' field")
		}
		return
	}
	for _, f := range []string{"values_standard", "values_period_adjusted"} {
		if !wcr.Has(f) {
			c.warnf("v7.2: working_capital_requirement missing '%s' field", f)
		}
	}
}
