package render

import (
	"strings"
	"time"

	"financial_report/pkg/core/resolve"
)

// Header is the report's title card.
type Header struct {
	CompanyName         string  `json:"company_name"`
	RegistrationNo      string  `json:"registration_no"`
	PrincipalActivities string  `json:"principal_activities"`
	FinancialYearEnd    string  `json:"financial_year_end"`
	Coverage            string  `json:"coverage"`
	Auditor             string  `json:"auditor,omitempty"`
	PreparedBy          string  `json:"prepared_by"`
	GeneratedOn         string  `json:"generated_on"`
	Schema              string  `json:"schema"`
	Badges              []Badge `json:"badges"`
}

// Badge marks a period in the header, toned by its audit status.
type Badge struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Tone  Tone   `json:"tone"`
}

// Footer carries the fixed disclaimer and copyright lines.
type Footer struct {
	Disclaimer   string `json:"disclaimer"`
	Copyright    string `json:"copyright"`
	CopyrightSub string `json:"copyright_sub"`
	PreparedBy   string `json:"prepared_by"`
	GeneratedOn  string `json:"generated_on"`
	Confidential string `json:"confidential"`
	CompanyTitle string `json:"company_title"`
}

// NavLink points at a report section.
type NavLink struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Navigation lists the section anchors in report order.
var Navigation = []NavLink{
	{"notes", "📋 Notes"},
	{"audit", "🔍 Audit"},
	{"pnl", "📈 P&L"},
	{"bs", "📊 Balance Sheet"},
	{"ratios", "🧮 Ratios"},
	{"wc", "💰 Working Capital"},
	{"funding", "🏗️ Funding"},
	{"profile", "🎯 Profile"},
	{"dscr", "📐 DSCR"},
	{"tnw", "🏦 TNW"},
	{"integrity", "✅ Integrity"},
	{"summary", "🧭 Summary"},
}

const (
	defaultPreparedBy = "Kredit Lab"

	// ConfidentialBanner is shown under the header of every report.
	ConfidentialBanner = "This report is confidential and prepared solely for the intended purchaser."

	// Disclaimer is fixed text; report_footer never overrides it.
	Disclaimer = "This report was prepared by Kredit Lab for the exclusive use of the purchasing party. " +
		"It does not constitute financial advice, a loan guarantee, or a credit rating. " +
		"Any recommendations contained herein are provided for informational purposes only; implementation is at the reader's sole discretion. " +
		"Kredit Lab accepts no responsibility or liability for any decisions, actions, losses, or consequences arising from the use of this report by any party. " +
		"No duty of care exists between Kredit Lab and any third party who may access this report."

	defaultCopyright    = "© 2026 Kredit Lab. All rights reserved."
	defaultCopyrightSub = "Kredit Lab is a division of Capital Island Sdn. Bhd."
)

func generatedOn(r *resolve.Resolver, now time.Time) string {
	return r.Doc.Path("_schema_info", "generation_date").StrOr(now.Format("2006-01-02"))
}

func preparedBy(r *resolve.Resolver) string {
	return r.Doc.Path("_schema_info", "generated_by").StrOr(defaultPreparedBy)
}

// BuildHeader assembles the title card. now supplies the generation date
// when the document has none.
func BuildHeader(r *resolve.Resolver, periods []string, now time.Time) Header {
	ci := r.CompanyInfo()
	opinions := ci.Get("audit_opinion")

	h := Header{
		CompanyName:         r.CompanyName("Company Name"),
		RegistrationNo:      ci.Get("registration_no").StrOr("N/A"),
		PrincipalActivities: ci.Get("principal_activities").StrOr("N/A"),
		FinancialYearEnd:    ci.Get("financial_year_end").StrOr("31 December"),
		Coverage:            "N/A",
		PreparedBy:          preparedBy(r),
		GeneratedOn:         generatedOn(r, now),
		Schema:              string(r.Tag),
		Badges:              []Badge{},
	}
	if len(periods) > 0 {
		h.Coverage = r.PeriodLabel(periods[0]) + " to " + r.PeriodLabel(periods[len(periods)-1])
	}

	for _, pk := range periods {
		op := opinions.Get(pk)
		typ := strings.ToLower(op.Get("opinion_type").Str())
		b := Badge{Label: r.PeriodLabel(pk), Icon: "📋"}
		switch {
		case typ == "adverse" || typ == "disclaimer" || op.Get("going_concern_note").Truthy():
			b.Icon, b.Tone = "⚠️", Danger
		case typ == "qualified":
			b.Icon, b.Tone = "⚠️", Warning
		case r.PeriodType(pk) == resolve.Audited:
			b.Tone = Info
		default:
			b.Tone = Warning
		}
		h.Badges = append(h.Badges, b)

		if h.Auditor == "" {
			h.Auditor = op.Get("auditor_name").Str()
		}
	}
	return h
}

// BuildFooter assembles the disclaimer and copyright block.
func BuildFooter(r *resolve.Resolver, now time.Time) Footer {
	copyright := r.Doc.Path("report_footer", "copyright")
	return Footer{
		Disclaimer:   Disclaimer,
		Copyright:    copyright.Get("main").StrOr(defaultCopyright),
		CopyrightSub: copyright.Get("subsidiary").StrOr(defaultCopyrightSub),
		PreparedBy:   preparedBy(r),
		GeneratedOn:  generatedOn(r, now),
		Confidential: ConfidentialBanner,
		CompanyTitle: r.CompanyName("Financial Report"),
	}
}
