package render

import (
	"fmt"
	"strings"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/models"
)

var gapStatus = map[string]struct {
	label string
	tone  Tone
}{
	"matched":           {"✅ Matched", Success},
	"minor_mismatch":    {"⚠️ Minor", Warning},
	"moderate_mismatch": {"⚠️ Moderate", Warning},
	"severe_mismatch":   {"❌ Severe", Danger},
}

var sustainabilityTone = map[string]Tone{
	"Sustainable":   Success,
	"Adequate":      Info,
	"Fragile":       Warning,
	"Unsustainable": Danger,
	"Critical":      Danger,
}

// FundingMismatch renders the gap between non-current assets and long-term
// funding with the overall sustainability assessment.
func FundingMismatch(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "funding",
		Title:    "Funding Mismatch Analysis",
		Subtitle: "Gap identification, source decomposition, and funding structure",
		Icon:     "🏗️",
	}
	fm := r.Doc.Get("funding_mismatch_analysis")
	if !fm.Truthy() {
		return sec
	}

	var terms []Item
	fm.Get("terminology").Each(func(term string, def models.Node) bool {
		if !strings.HasPrefix(term, "_") {
			terms = append(terms, Item{Label: term, Text: def.Str()})
		}
		return true
	})
	sec.addFields("📖 Terminology", terms)

	if layer := fm.Get("layer_1_gap_identification"); layer.Truthy() {
		cols := []string{"Component"}
		for _, pk := range periods {
			cols = append(cols, r.PeriodLabel(pk))
		}
		g := newGrid(r, periods, "📐 Layer 1: Gap Identification", cols)
		g.header(SectionHeader, "FUNDING GAP ANALYSIS")

		g.add(Row{Kind: LineItem, Label: "Non-Current Assets (NCA)", Indent: 1, Cells: g.cells(func(pk string) Cell {
			p := layer.Get(pk)
			v := p.Get("non_current_assets")
			if !v.Exists() {
				v = p.Get("non_current_assets_nca")
			}
			return NumberCell(resolve.F(v.FloatOr(0)))
		})})
		g.add(Row{Kind: LineItem, Label: "Long-Term Funding (Equity + NCL)", Indent: 1, Cells: g.cells(func(pk string) Cell {
			lt := layer.Path(pk, "long_term_funding")
			if lt.IsObject() {
				lt = lt.Get("total")
			}
			return NumberCell(resolve.F(lt.FloatOr(0)))
		})})
		g.add(Row{Kind: Total, Label: "Funding Gap", Cells: g.cells(func(pk string) Cell {
			v := layer.Path(pk, "funding_gap").FloatOr(0)
			c := NumberCell(&v)
			c.Tone = Success
			if v > 0 {
				c.Tone = Danger
			}
			return c
		})})
		g.add(Row{Kind: LineItem, Label: "Gap % of NCA", Indent: 1, Cells: g.cells(func(pk string) Cell {
			v := layer.Path(pk, "gap_as_percentage_of_nca").FloatOr(0)
			return Cell{Value: &v, Text: resolve.FormatPercentage(&v, 2)}
		})})
		g.add(Row{Kind: LineItem, Label: "Status", Indent: 1, Cells: g.cells(func(pk string) Cell {
			status := layer.Path(pk, "status").StrOr("unknown")
			if s, ok := gapStatus[status]; ok {
				return Cell{Text: s.label, Tone: s.tone}
			}
			return TextCell(status)
		})})
		sec.addTable(g.table)
	}

	if fsa := fm.Get("funding_structure_assessment"); fsa.Truthy() {
		rating := fsa.Get("overall_sustainability_rating").StrOr("Unknown")
		tone, ok := sustainabilityTone[rating]
		if !ok {
			tone = Info
		}
		sec.addCallout("⚖️ Funding Structure Assessment", "Sustainability Rating: "+rating, tone)
		sec.addList("Risk Flags", riskFlags(fsa.Get("risk_flags")))
	}
	return sec
}

// riskFlags accepts structured flags and the plain strings of v6.15/v6.16.
func riskFlags(flags models.Node) []Item {
	var items []Item
	for _, f := range flags.Array() {
		switch {
		case f.IsObject():
			sev := f.Get("severity").StrOr("medium")
			items = append(items, Item{
				Label: f.Get("flag").Str(),
				Text:  f.Get("description").Str(),
				Badge: strings.ToUpper(sev),
				Tone:  severityTone(sev),
			})
		case f.IsString():
			items = append(items, Item{Text: f.Str()})
		}
	}
	return items
}

func severityTone(sev string) Tone {
	switch strings.ToLower(sev) {
	case "high", "critical":
		return Danger
	case "medium":
		return Warning
	case "low":
		return Info
	}
	return Neutral
}

var knownFacilities = []string{
	"hire_purchase", "term_loan", "overdraft", "trade_financing",
	"revolving_credit", "bankers_guarantee", "invoice_financing",
	"business_financing_i", "related_party_borrowings",
}

// FundingProfile renders existing facilities and facility guidance.
func FundingProfile(r *resolve.Resolver, _ []string) Section {
	sec := Section{
		ID:       "profile",
		Title:    "Funding Profile",
		Subtitle: "Existing facilities and suitability assessment",
		Icon:     "🎯",
	}
	fp := r.Doc.Get("funding_profile")
	if !fp.Truthy() {
		return sec
	}

	if facilities := fp.Get("existing_facilities_identified"); facilities.Truthy() {
		t := &Table{Title: "🏦 Existing Facilities", Columns: []string{"Facility", "Current", "Non-Current", "Total"}}
		known := map[string]bool{"total_borrowings": true}
		for _, key := range knownFacilities {
			known[key] = true
			if row, ok := facilityRow(key, facilities.Get(key)); ok {
				t.Rows = append(t.Rows, row)
			}
		}
		facilities.Each(func(key string, item models.Node) bool {
			if known[key] || !item.IsObject() {
				return true
			}
			if row, ok := facilityRow(key, item); ok {
				t.Rows = append(t.Rows, row)
			}
			return true
		})
		total := facilities.Get("total_borrowings").FloatOr(0)
		t.Rows = append(t.Rows, Row{Kind: GrandTotal, Label: "Total Borrowings",
			Cells: []Cell{{}, {}, NumberCell(&total)}})
		sec.addTable(t)
	}

	var guidance []Item
	for _, s := range fp.Path("suitability_vs_financial_condition", "general_guidance").Strings() {
		guidance = append(guidance, Item{Text: s})
	}
	sec.addList("📋 Facility Guidance", guidance)
	return sec
}

// facilityRow renders a facility with a non-zero total. A facility carries
// either portions or a single amount.
func facilityRow(key string, item models.Node) (Row, bool) {
	if !item.Truthy() {
		return Row{}, false
	}
	current := item.Get("current_portion")
	if !current.Exists() {
		current = item.Get("amount")
	}
	cur := current.FloatOr(0)
	nonCur := item.Get("non_current_portion").FloatOr(0)
	total := item.Get("total").FloatOr(cur + nonCur)
	if total == 0 {
		return Row{}, false
	}
	return Row{Kind: LineItem, Label: resolve.SnakeToTitle(key),
		Cells: []Cell{NumberCell(&cur), NumberCell(&nonCur), NumberCell(&total)}}, true
}

// facilityList joins a facility name list for display.
func facilityList(n models.Node) string {
	names := n.Strings()
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("Includes: %s", strings.Join(names, ", "))
}
