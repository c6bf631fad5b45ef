package render

import (
	"financial_report/pkg/core/resolve"
)

// Integrity renders the document's self-reported balance sheet verification.
func Integrity(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "integrity",
		Title:    "Integrity Check",
		Subtitle: "Balance sheet verification and data quality",
		Icon:     "✅",
	}
	verify := r.Doc.Path("integrity_check", "balance_sheet_verification")
	if !verify.Truthy() {
		return sec
	}
	cols := []string{"Check"}
	for _, pk := range periods {
		cols = append(cols, r.PeriodLabel(pk))
	}
	g := newGrid(r, periods, "", cols)
	field := func(key string) func(pk string) Cell {
		return func(pk string) Cell {
			return NumberCell(resolve.F(verify.Path(pk, key).FloatOr(0)))
		}
	}
	balanced := func(pk string) bool { return verify.Path(pk, "balanced").Truthy() }

	g.add(Row{Kind: LineItem, Label: "Total Assets", Indent: 1, Cells: g.cells(field("total_assets"))})
	g.add(Row{Kind: LineItem, Label: "Total Equity & Liabilities", Indent: 1, Cells: g.cells(field("total_equity_and_liabilities"))})
	g.add(Row{Kind: Total, Label: "Variance", Indent: 1, Cells: g.cells(func(pk string) Cell {
		c := field("variance")(pk)
		c.Tone = Danger
		if balanced(pk) {
			c.Tone = Success
		}
		return c
	})})
	g.add(Row{Kind: LineItem, Label: "Status", Indent: 1, Cells: g.cells(func(pk string) Cell {
		if balanced(pk) {
			return Cell{Text: "✅ Balanced", Tone: Success}
		}
		return Cell{Text: "❌ Imbalanced", Tone: Danger}
	})})
	sec.addTable(g.table)
	return sec
}
