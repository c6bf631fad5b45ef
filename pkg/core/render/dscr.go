package render

import (
	"fmt"
	"strings"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/models"
)

// DSCR thresholds of the banking standard.
const (
	DSCRBenchmark = 1.25
	DSCRMinimum   = 1.0
)

const dscrBenchmarkNote = "DSCR ≥ 1.25x (Banking Standard) | Minimum: ≥ 1.00x\n" +
	"DSCR = EBITDA ÷ (Term Facility Principal + All Interest). Revolving facilities contribute to interest but NOT principal."

// DSCR renders the debt service coverage calculation. Term facilities count
// principal and interest; revolving facilities count interest only.
func DSCR(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "dscr",
		Title:    "DSCR Analysis",
		Subtitle: "Debt service coverage ratio calculation (Banking Standard)",
		Icon:     "📐",
	}
	dscr := r.Doc.Get("dscr_analysis")
	calc := dscr.Get("calculation")
	if !dscr.Truthy() || !calc.Truthy() {
		return sec
	}

	if fc := dscr.Get("facility_classification"); fc.Truthy() {
		if term := fc.Get("term_facilities"); term.Truthy() {
			lines := []string{"Term Facilities (Principal + Interest in DSCR): " + term.Get("description").Str()}
			if s := facilityList(term.Get("facilities")); s != "" {
				lines = append(lines, s)
			}
			if cp := term.Get("current_portions"); cp.Truthy() {
				total := cp.Get("total").FloatOr(0)
				lines = append(lines, "Total Term Current Portion: "+resolve.FormatNumber(&total, 0))
			}
			sec.addCallout("🏦 Facility Classification", strings.Join(lines, "\n"), Info)
		}
		if rev := fc.Get("revolving_facilities"); rev.Truthy() {
			lines := []string{"Revolving Facilities (Interest ONLY in DSCR): " + rev.Get("description").Str()}
			if s := facilityList(rev.Get("facilities")); s != "" {
				lines = append(lines, s)
			}
			if amounts := rev.Get("amounts"); amounts.Truthy() {
				total := amounts.Get("total").FloatOr(0)
				lines = append(lines, fmt.Sprintf("Total Revolving: %s (excluded from principal)", resolve.FormatNumber(&total, 0)))
			}
			sec.addCallout("Revolving Facilities", strings.Join(lines, "\n"), Warning)
		}
	}

	cols := []string{"Component"}
	for _, pk := range periods {
		cols = append(cols, r.PeriodLabel(pk))
	}
	g := newGrid(r, periods, "", cols)
	period := func(pk string) models.Node { return calc.Get(pk) }

	g.header(SectionHeader, "EBITDA")
	g.add(Row{Kind: LineItem, Label: "EBITDA", Indent: 1, Cells: g.cells(func(pk string) Cell {
		p := period(pk)
		v := p.Get("ebitda")
		if !v.Exists() {
			v = p.Get("ebitda_annualized")
		}
		return NumberCell(resolve.F(v.FloatOr(0)))
	})})
	if g.anyTruthy(func(pk string) models.Node { return period(pk).Get("ebitda_annualized") }) {
		g.add(Row{Kind: LineItem, Label: "EBITDA (Annualized)", Indent: 1, Cells: g.cells(func(pk string) Cell {
			v := period(pk).Get("ebitda_annualized")
			if !v.Truthy() {
				return TextCell("-")
			}
			return NumberCell(v.FloatPtr())
		})})
	}

	g.header(SectionHeader, "DEBT SERVICE")
	principal := func(pk string) models.Node { return period(pk).Path("debt_service", "principal_repayment") }
	g.add(Row{Kind: LineItem, Label: "Principal Repayment (Term Facilities)", Indent: 1, Cells: g.cells(func(pk string) Cell {
		pr := principal(pk)
		if pr.IsObject() {
			pr = pr.Get("total_principal")
		}
		return NumberCell(resolve.F(pr.FloatOr(0)))
	})})
	if g.anyTruthy(func(pk string) models.Node { return principal(pk).Get("excluded_revolving") }) {
		g.add(Row{Kind: LineItem, Style: SubRow, Label: "Excluded: Revolving Facilities", Indent: 2, Cells: g.cells(func(pk string) Cell {
			return NumberCell(resolve.F(principal(pk).Get("excluded_revolving").FloatOr(0)))
		})})
	}
	g.add(Row{Kind: LineItem, Label: "Interest Expense", Indent: 1, Cells: g.cells(func(pk string) Cell {
		ds := period(pk).Get("debt_service")
		v := ds.Get("interest_expense")
		if !v.Exists() {
			v = ds.Get("interest_expense_annualized")
		}
		return NumberCell(resolve.F(v.FloatOr(0)))
	})})
	g.add(Row{Kind: Total, Label: "Total Debt Service", Cells: g.cells(func(pk string) Cell {
		return NumberCell(resolve.F(period(pk).Path("debt_service", "total_debt_service").FloatOr(0)))
	})})

	g.header(SectionHeader, "DSCR")
	g.add(Row{Kind: GrandTotal, Label: "DSCR", Cells: g.cells(func(pk string) Cell {
		v := period(pk).Get("dscr").FloatOr(0)
		return Cell{Value: &v, Text: resolve.FormatRatio(&v, "x"), Tone: DSCRTone(v)}
	})})
	sec.addTable(g.table)

	sec.addCallout("Notes", dscr.Get("notes").Str(), Info)
	sec.addCallout("Benchmark", dscrBenchmarkNote, Warning)
	sec.addCallout("📋 DSCR Assessment", dscr.Get("assessment").Str(), Info)
	return sec
}

// DSCRTone grades a coverage ratio against the benchmark and minimum.
func DSCRTone(v float64) Tone {
	switch {
	case v >= DSCRBenchmark:
		return Success
	case v >= DSCRMinimum:
		return Warning
	}
	return Danger
}

func (g *grid) anyTruthy(fn func(pk string) models.Node) bool {
	for _, pk := range g.periods {
		if fn(pk).Truthy() {
			return true
		}
	}
	return false
}
