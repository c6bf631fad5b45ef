package render

import (
	"fmt"
	"sort"
	"strings"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/models"
)

var keyObservationFields = []struct{ key, label string }{
	{"revenue_trend", "Revenue Trend"},
	{"profitability_trend", "Profitability Trend"},
	{"liquidity_position", "Liquidity Position"},
	{"working_capital_cycle", "Working Capital Cycle"},
	{"debt_structure", "Debt Structure"},
	{"funding_position", "Funding Position"},
	{"asset_base", "Asset Base"},
	{"related_party_exposure", "Related Party Exposure"},
	{"dividend_policy", "Dividend Policy"},
}

var priorityRank = map[string]int{"HIGH": 1, "MEDIUM": 2, "LOW": 3}

// Observations renders the analysis summary: key observations, positive
// trends, concerns, prioritised recommendations and facility suitability.
func Observations(r *resolve.Resolver, _ []string) Section {
	sec := Section{
		ID:       "summary",
		Title:    "Summary & Key Observations",
		Subtitle: "Analysis highlights, concerns, and strategic recommendations",
		Icon:     "🧭",
	}
	summary := r.Doc.Get("analysis_summary")
	if !summary.Truthy() {
		return sec
	}

	obs := summary.Get("key_observations")
	var fields []Item
	for _, f := range keyObservationFields {
		if v := obs.Get(f.key).Str(); v != "" {
			fields = append(fields, Item{Label: f.label, Text: v})
		}
	}
	sec.addFields("📊 Key Observations", fields)

	positives := firstPresent(summary, "positive_indicators", "strengths")
	sec.addList("✅ Positive Trends", orDefault(indicatorItems(positives, false), "No positive indicators noted"))

	concerns := firstPresent(summary, "areas_of_concern", "concerns", "weaknesses")
	sec.addList("⚠️ Areas Requiring Attention", orDefault(indicatorItems(concerns, true), "No significant concerns noted"))

	sec.addList("🎯 Strategic Recommendations", orDefault(recommendations(summary.Get("recommendations")), "No specific recommendations"))

	if fss := summary.Get("facility_suitability_summary"); fss.Truthy() {
		facilitySuitability(&sec, fss)
	}
	return sec
}

func firstPresent(n models.Node, keys ...string) models.Node {
	for _, k := range keys {
		if v := n.Get(k); v.Exists() {
			return v
		}
	}
	return models.Missing
}

func orDefault(items []Item, placeholder string) []Item {
	if len(items) == 0 {
		return []Item{{Text: placeholder}}
	}
	return items
}

// indicatorItems renders titled objects or plain strings; concerns carry a
// severity badge.
func indicatorItems(list models.Node, withSeverity bool) []Item {
	var items []Item
	for _, it := range list.Array() {
		if !it.IsObject() {
			items = append(items, Item{Text: it.Str()})
			continue
		}
		item := Item{Label: it.Get("title").Str(), Text: it.Get("description").Str()}
		if withSeverity {
			sev := it.Get("severity").StrOr("medium")
			item.Badge = strings.ToUpper(sev)
			item.Tone = severityTone(sev)
		}
		items = append(items, item)
	}
	return items
}

// recommendations sorts by HIGH, MEDIUM, LOW priority; unranked entries
// keep their order at the end.
func recommendations(list models.Node) []Item {
	entries := list.Array()
	rank := func(n models.Node) int {
		if !n.IsObject() {
			return 99
		}
		if r, ok := priorityRank[strings.ToUpper(n.Get("priority").StrOr("LOW"))]; ok {
			return r
		}
		return 99
	}
	sort.SliceStable(entries, func(i, j int) bool { return rank(entries[i]) < rank(entries[j]) })

	var items []Item
	for _, e := range entries {
		if !e.IsObject() {
			items = append(items, Item{Text: e.Str()})
			continue
		}
		area := firstPresent(e, "area", "title").Str()
		action := firstPresent(e, "action", "description").Str()
		items = append(items, Item{
			Label: fmt.Sprintf("[%s] %s", strings.ToUpper(e.Get("priority").StrOr("LOW")), area),
			Text:  action,
		})
	}
	return items
}

func facilitySuitability(sec *Section, fss models.Node) {
	var fields []Item
	if appropriate := fss.Get("existing_facilities_appropriate"); appropriate.Exists() && !appropriate.IsNull() {
		yes, _ := appropriate.Bool()
		if yes {
			fields = append(fields, Item{Label: "Existing Facilities Appropriate", Text: "✅ Yes", Tone: Success})
		} else {
			fields = append(fields, Item{Label: "Existing Facilities Appropriate", Text: "❌ No", Tone: Danger})
		}
	}
	if s := strings.Join(fss.Get("potential_facilities_to_consider").Strings(), ", "); s != "" {
		fields = append(fields, Item{Label: "Facilities to Consider", Text: s})
	}
	if s := strings.Join(fss.Get("facilities_to_avoid").Strings(), ", "); s != "" {
		fields = append(fields, Item{Label: "Facilities to Avoid", Text: s})
	}
	sec.addFields("🏦 Facility Suitability Summary", fields)
	sec.addCallout("Rationale", fss.Get("rationale").Str(), Info)

	var concerns []Item
	for _, c := range fss.Get("existing_facility_concerns").Strings() {
		concerns = append(concerns, Item{Text: c, Tone: Warning})
	}
	sec.addList("⚠️ Facility Concerns", concerns)

	if wca := fss.Get("working_capital_assessment"); wca.Truthy() {
		sec.addCallout("📊 Working Capital Assessment", facilityWCText(wca), Info)
	}

	var conditions []Item
	for _, c := range fss.Get("key_conditions").Strings() {
		conditions = append(conditions, Item{Text: c})
	}
	sec.addList("Key Conditions", conditions)
}

// facilityWCText summarises the WC assessment embedded in facility
// suitability, including the period-adjusted requirement when it differs.
func facilityWCText(wca models.Node) string {
	var parts []string
	ccc := wca.Get("ccc_status").Str()
	owc := wca.Get("owc_status").Str()
	icon := func(s string) string {
		if strings.EqualFold(s, "positive") {
			return "🔴"
		}
		return "🟢"
	}
	if ccc != "" {
		parts = append(parts, fmt.Sprintf("%s CCC Status (PRIMARY): %s", icon(ccc), strings.ToUpper(ccc)))
	}
	if owc != "" {
		parts = append(parts, fmt.Sprintf("%s OWC Status (Supporting): %s", icon(owc), strings.ToUpper(owc)))
	}
	wcr := firstPresent(wca, "wcr_amount", "wcr_amount_standard").FloatOr(0)
	if wcr != 0 {
		s := "WCR: " + resolve.FormatNumber(&wcr, 0)
		if pa := wca.Get("wcr_amount_period_adjusted").FloatOr(0); pa != 0 && pa != wcr {
			s += fmt.Sprintf(" (Period-Adj: %s)", resolve.FormatNumber(&pa, 0))
		}
		parts = append(parts, s)
	}
	lines := []string{strings.Join(parts, " | ")}
	if ccc != "" && owc != "" && !strings.EqualFold(ccc, owc) {
		lines = append(lines, "⚡ CCC/OWC signals differ - CCC takes precedence")
	}
	if needs, ok := wca.Get("needs_wc_facility").Bool(); ok {
		if needs {
			lines = append(lines, "Needs WC Facility: ⚠️ Yes")
		} else {
			lines = append(lines, "Needs WC Facility: ✅ No")
		}
	}
	if rationale := wca.Get("rationale").Str(); rationale != "" {
		lines = append(lines, rationale)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
