package render

import (
	"fmt"
	"strings"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/models"
)

var owcComponents = []struct{ key, label string }{
	{"trade_receivables", "Trade Receivables"},
	{"inventory", "Inventory"},
	{"trade_payables", "Trade Payables"},
}

// WorkingCapital renders NWC, OWC, the CCC-driven requirement and the
// facility assessment. Narratives deprecated in later schemas still render
// when an older document carries them.
func WorkingCapital(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "wc",
		Title:    "Working Capital Analysis",
		Subtitle: "Operating WC (Supporting), CCC (Primary Driver), and WC Requirement",
		Icon:     "💰",
	}
	wc := r.Doc.Get("working_capital_analysis")
	if !wc.Truthy() {
		return sec
	}

	cols := []string{"Metric"}
	for _, pk := range periods {
		cols = append(cols, r.PeriodLabel(pk))
	}
	g := newGrid(r, periods, "", cols)

	if nwc := wc.Get("net_working_capital"); nwc.Truthy() {
		g.header(SectionHeader, "NET WORKING CAPITAL")
		g.add(Row{Kind: Total, Label: "Current Assets - Current Liabilities", Indent: 1,
			Cells: g.signed(nwc.Get("values"), func(v float64) bool { return v >= 0 })})
	}

	if owc := wc.Get("operating_working_capital"); owc.Truthy() {
		g.header(SectionHeader, "OPERATING WORKING CAPITAL (SUPPORTING INDICATOR)")
		g.add(Row{Kind: Total, Label: "Trade Receivables + Inventory - Trade Payables", Indent: 1,
			Cells: g.signed(owc.Get("values"), func(v float64) bool { return v <= 0 })})
		g.owcComponents(owc.Get("components"))
		g.interpretation(owc.Get("interpretation"))
	}

	if wcr := wc.Get("working_capital_requirement"); wcr.Truthy() {
		g.requirement(wcr)
	}

	sec.addTable(g.table)

	if assess := wc.Get("working_capital_assessment"); assess.Truthy() {
		text, tone := wcAssessment(assess)
		sec.addCallout("WC Facility Assessment", text, tone)
	}
	if trend := wc.Get("working_capital_trend"); trend.Truthy() {
		direction := trend.Get("direction").Str()
		tone := Info
		switch direction {
		case "improving":
			tone = Success
		case "deteriorating":
			tone = Warning
		}
		sec.addCallout("Trend", capitalize(direction)+" - "+trend.Get("observations").Str(), tone)
	}
	return sec
}

// signed renders a plain series, toning each value by good.
func (g *grid) signed(series models.Node, good func(float64) bool) []Cell {
	return g.cells(func(pk string) Cell {
		v := resolve.SeriesValue(series, pk, resolve.Zero())
		c := NumberCell(v)
		if v != nil {
			c.Tone = Danger
			if good(*v) {
				c.Tone = Success
			}
		}
		return c
	})
}

func (g *grid) owcComponents(components models.Node) {
	if !components.Truthy() {
		return
	}
	// structure comes from the latest period that carries components
	var latest models.Node
	for i := len(g.periods) - 1; i >= 0; i-- {
		if c := components.Get(g.periods[i]); c.Truthy() {
			latest = c
			break
		}
	}
	if !latest.Exists() {
		return
	}
	for _, comp := range owcComponents {
		if latest.Get(comp.key).FloatOr(0) == 0 && comp.key != "inventory" {
			continue
		}
		g.add(Row{Kind: LineItem, Style: SubRow, Label: comp.label, Indent: 2, Cells: g.cells(func(pk string) Cell {
			period := components.Get(pk)
			if !period.Truthy() {
				return TextCell("-")
			}
			return NumberCell(resolve.F(period.Get(comp.key).FloatOr(0)))
		})})
	}
}

// interpretation renders per-period narratives of pre-v6.18 documents.
func (g *grid) interpretation(interp models.Node) {
	if !interp.Truthy() {
		return
	}
	for _, pk := range g.periods {
		p := interp.Get(pk)
		explanation := p.Get("explanation").Str()
		if !p.IsObject() || explanation == "" {
			continue
		}
		icon := "🔴"
		if p.Get("status").Str() == "self_funding" {
			icon = "🟢"
		}
		g.add(Row{Kind: LineItem, Style: SubRow, Indent: 2,
			Label: fmt.Sprintf("%s %s: %s", icon, g.r.PeriodLabel(pk), explanation)})
	}
}

func (g *grid) requirement(wcr models.Node) {
	g.header(SectionHeader, "WORKING CAPITAL REQUIREMENT (CCC-BASED)")

	details := wcr.Get("calculation_details")
	standard := wcr.Get("values_standard")
	if !standard.Exists() {
		standard = wcr.Get("values")
	}

	ccc := g.r.Doc.Path("financial_ratios", "efficiency_ratios", "cash_conversion_cycle")
	cccSeries := ccc.Get("values")
	if !cccSeries.Truthy() {
		cccSeries = ccc.Get("values_standard")
	}

	if details.Truthy() || cccSeries.Truthy() {
		g.add(Row{Kind: LineItem, Label: "CCC Days (PRIMARY DRIVER)", Indent: 1, Cells: g.cells(func(pk string) Cell {
			days := details.Path(pk, "ccc_days").FloatOr(0)
			if days == 0 {
				days = cccSeries.Get(pk).FloatOr(0)
			}
			tone := Success
			if days > 0 {
				tone = Danger
			}
			return Cell{Value: resolve.F(days), Text: resolve.FormatDays(&days), Tone: tone}
		})})

		if pa := ccc.Get("values_period_adjusted"); pa.Truthy() {
			cells, ok := g.dualCells(ccc.Get("values_standard"), pa, func(_ string, v float64) string {
				return resolve.FormatDays(&v)
			})
			if ok {
				g.add(Row{Kind: LineItem, Style: SubRow, Label: "↳ Period-Adjusted CCC", Indent: 2, Cells: cells})
			}
		}
	}

	label := "WC Requirement (Standard)"
	if g.r.Tag.SingleWCR() {
		label = "WC Requirement"
	}
	g.add(Row{Kind: GrandTotal, Label: label, Cells: g.cells(func(pk string) Cell {
		v, ok := standard.Get(pk).Float()
		if !standard.Get(pk).Exists() {
			v, ok = details.Path(pk, "wc_requirement").Float()
		}
		if !ok {
			v = 0
		}
		tone := Success
		if v > 0 {
			tone = Danger
		}
		c := NumberCell(resolve.F(v))
		c.Tone = tone
		return c
	})})

	if pa := wcr.Get("values_period_adjusted"); pa.Truthy() {
		cells, ok := g.dualCells(standard, pa, func(_ string, v float64) string {
			return resolve.FormatNumber(&v, 0)
		})
		if ok {
			g.add(Row{Kind: LineItem, Style: SubRow, Label: "↳ WCR (Period-Adjusted)", Indent: 1, Cells: cells})
		}
	}

	g.interpretation(wcr.Get("interpretation"))
}

// wcAssessment composes the facility assessment callout. CCC is the primary
// signal and OWC the supporting one.
func wcAssessment(assess models.Node) (string, Tone) {
	needs, ok := assess.Get("needs_wc_facility").Bool()
	if !ok {
		return "", Neutral
	}
	var b strings.Builder
	tone := Success
	if needs {
		tone = Warning
		b.WriteString("WC Facility Needed: ⚠️ Yes - External WC facility needed")
	} else {
		b.WriteString("WC Facility Needed: ✅ No - Self-funding position")
	}

	cccStatus := assess.Get("ccc_status").Str()
	owcStatus := assess.Get("owc_status").Str()
	statusIcon := func(s string) string {
		if strings.EqualFold(s, "positive") {
			return "🔴"
		}
		return "🟢"
	}
	if cccStatus != "" || owcStatus != "" {
		b.WriteString("\n")
	}
	if cccStatus != "" {
		fmt.Fprintf(&b, "%s CCC Status (PRIMARY): %s", statusIcon(cccStatus), strings.ToUpper(cccStatus))
	}
	if owcStatus != "" {
		if cccStatus != "" {
			b.WriteString(" | ")
		}
		fmt.Fprintf(&b, "%s OWC Status (Supporting): %s", statusIcon(owcStatus), strings.ToUpper(owcStatus))
	}
	if cccStatus != "" && owcStatus != "" && !strings.EqualFold(cccStatus, owcStatus) {
		b.WriteString("\n⚡ CCC/OWC signals differ - CCC takes precedence (see rationale)")
	}
	if rec := assess.Get("recommended_facility_type").Str(); rec != "" && rec != "None required" {
		b.WriteString("\nRecommended: " + rec)
		if amt := assess.Get("recommended_facility_amount").FloatOr(0); amt != 0 {
			fmt.Fprintf(&b, " (%s)", resolve.FormatNumber(&amt, 0))
		}
	}
	if rationale := assess.Get("rationale").Str(); rationale != "" {
		b.WriteString("\n" + rationale)
	}
	return b.String(), tone
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
