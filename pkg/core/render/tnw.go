package render

import (
	"financial_report/pkg/core/resolve"
	"financial_report/pkg/models"
)

var tnwAdjustments = []struct{ key, label string }{
	{"less_intangibles", "Intangible Assets"},
	{"less_due_from_directors", "Due from Directors"},
	{"less_due_from_related_companies", "Due from Related Companies"},
}

// TNW renders tangible net worth: the per-period calculation from v6.5, or
// the older components and summary layout.
func TNW(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "tnw",
		Title:    "Tangible Net Worth (TNW) Analysis",
		Subtitle: "Banking perspective: adjusted equity position",
		Icon:     "🏦",
	}
	tnw := r.Doc.Get("tnw_analysis")
	if !tnw.Truthy() {
		return sec
	}

	cols := []string{"Component"}
	for _, pk := range periods {
		cols = append(cols, r.PeriodLabel(pk))
	}
	g := newGrid(r, periods, "", cols)

	calc := tnw.Get("calculation")
	if calc.Truthy() && g.anyPresent(calc) {
		field := func(path ...string) func(pk string) Cell {
			return func(pk string) Cell {
				return NumberCell(resolve.F(calc.Path(append([]string{pk}, path...)...).FloatOr(0)))
			}
		}
		g.header(SectionHeader, "TNW CALCULATION")
		g.add(Row{Kind: LineItem, Label: "Total Shareholders' Equity (Original TNW)", Indent: 1, Cells: g.cells(field("original_tnw"))})
		g.header(SubsectionHeader, "Less: Adjustments")
		for _, adj := range tnwAdjustments {
			g.add(Row{Kind: LineItem, Label: adj.label, Indent: 2, Cells: g.cells(field("adjustments", adj.key))})
		}
		g.add(Row{Kind: Total, Label: "Total Adjustments", Indent: 1, Cells: g.cells(field("adjustments", "total_adjustments"))})
		g.add(Row{Kind: GrandTotal, Label: "Adjusted TNW", Cells: g.cells(field("adjusted_tnw"))})
	} else {
		tnw.Get("components").Each(func(key string, item models.Node) bool {
			if item.IsObject() && resolve.AnyNonZero(item, periods) {
				g.add(Row{Kind: LineItem, Label: resolve.DisplayName(item, key), Indent: 1, Cells: g.numbers(item, nil)})
			}
			return true
		})
		if summary := tnw.Get("summary"); summary.Truthy() {
			adjusted := summary.Get("adjusted_tnw")
			g.add(Row{Kind: GrandTotal, Label: "Adjusted TNW", Cells: g.cells(func(pk string) Cell {
				if adjusted.IsObject() && adjusted.Has(pk) {
					return NumberCell(resolve.F(adjusted.Get(pk).FloatOr(0)))
				}
				return NumberCell(resolve.F(resolve.ValueOr(summary, pk, 0)))
			})})
		}
	}
	sec.addTable(g.table)

	assess := tnw.Get("assessment")
	notes := assess.Get("notes").Str()
	trend := assess.Get("tnw_trend").Str()
	if notes != "" || trend != "" {
		sec.addCallout("Assessment", notes+" Trend: "+capitalize(trend), Info)
	}
	return sec
}

// anyPresent reports whether container has an entry for some period.
func (g *grid) anyPresent(container models.Node) bool {
	for _, pk := range g.periods {
		if container.Has(pk) {
			return true
		}
	}
	return false
}
