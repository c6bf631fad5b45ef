package render

import (
	"strings"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/models"
)

// OpinionBadge classifies an auditor's opinion for display.
func OpinionBadge(opinionType string) (string, Tone) {
	lower := strings.ToLower(opinionType)
	switch {
	case strings.Contains(lower, "unqualified"):
		if strings.Contains(lower, "restated") {
			return "✓ UNQUALIFIED (RESTATED)", Success
		}
		return "✓ UNQUALIFIED", Success
	case lower == "qualified":
		return "⚠ QUALIFIED", Warning
	case lower == "adverse":
		return "✗ ADVERSE", Danger
	case lower == "disclaimer":
		return "✗ DISCLAIMER", Danger
	}
	return strings.ToUpper(opinionType), Success
}

const goingConcernText = "Material uncertainty regarding the company's ability to continue as a going concern."

// AuditOpinion summarises the independent auditors' report per period and
// any prior year restatement. It is empty when no period carries an opinion.
func AuditOpinion(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "audit",
		Title:    "Audit Opinion",
		Subtitle: "Independent Auditors' Report summary",
		Icon:     "🔍",
	}
	ci := r.CompanyInfo()
	opinions := ci.Get("audit_opinion")
	if !opinions.Truthy() {
		return sec
	}

	found := false
	for _, pk := range periods {
		op := opinions.Get(pk)
		if !op.IsObject() {
			continue
		}
		found = true
		badge, tone := OpinionBadge(op.Get("opinion_type").StrOr("Unknown"))

		fields := []Item{{Label: "Opinion", Text: badge, Tone: tone, Badge: badge}}
		fields = append(fields, Item{Label: "Auditor", Text: op.Get("auditor_name").StrOr("N/A")})
		if firm := op.Get("audit_firm_number").Str(); firm != "" {
			fields = append(fields, Item{Label: "Firm No", Text: firm})
		}
		fields = append(fields, Item{Label: "Date Signed", Text: op.Get("date_signed").StrOr("N/A")})
		sec.addFields(r.PeriodLabel(pk), fields)

		sec.addCallout("Emphasis of Matter", op.Get("emphasis_of_matter").Str(), Warning)
		var kams []Item
		for _, k := range op.Get("key_audit_matters").Strings() {
			kams = append(kams, Item{Text: k})
		}
		sec.addList("Key Audit Matters", kams)
		if op.Get("going_concern_note").Truthy() {
			sec.addCallout("⚠️ Going Concern Note", goingConcernText, Danger)
		}
	}
	if !found {
		return Section{ID: sec.ID, Title: sec.Title, Subtitle: sec.Subtitle, Icon: sec.Icon}
	}

	priorYear(&sec, r, ci.Get("prior_year_adjustments"))
	return sec
}

func priorYear(sec *Section, r *resolve.Resolver, pya models.Node) {
	if !pya.Get("has_restatement").Truthy() {
		return
	}
	sec.addCallout("📝 Prior Year Adjustments", pya.Get("description").Str(), Warning)

	known := map[string]bool{}
	for _, pk := range r.PeriodKeys() {
		known[pk] = true
	}
	pya.Get("adjustments_by_period").Each(func(pk string, adj models.Node) bool {
		if !adj.IsObject() {
			return true
		}
		label := strings.ToUpper(pk)
		if known[pk] {
			label = r.PeriodLabel(pk)
		}
		var items []Item
		if s := adj.Get("summary").Str(); s != "" {
			items = append(items, Item{Text: s})
		}
		for _, li := range adj.Get("line_items_affected").Strings() {
			items = append(items, Item{Text: li, Tone: Warning})
		}
		if len(items) == 0 {
			items = []Item{{Text: "-"}}
		}
		sec.addList(label, items)
		return true
	})
}

