package render

import (
	"fmt"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/models"
)

type ratioCategory struct {
	title string
	key   string
	keys  []string
}

// ratioCategories lists each ratio group in display order. Renamed leverage
// ratios precede their legacy names; see ratioAliases.
var ratioCategories = []ratioCategory{
	{"Profitability Ratios", "profitability_ratios", []string{
		"gross_profit_margin", "operating_profit_margin", "pbt_margin",
		"net_profit_margin", "ebitda_margin", "roa", "roe",
	}},
	{"Liquidity Ratios", "liquidity_ratios", []string{"current_ratio", "quick_ratio", "cash_ratio"}},
	{"Leverage Ratios", "leverage_ratios", []string{
		"liabilities_to_equity", "debt_to_equity",
		"liabilities_to_assets", "debt_to_assets",
		"gearing_ratio", "interest_coverage", "dscr",
	}},
	{"Efficiency Ratios", "efficiency_ratios", []string{
		"asset_turnover", "debtor_days", "creditor_days", "inventory_days", "cash_conversion_cycle",
	}},
}

// ratioAliases maps a legacy ratio to the current name that supersedes it.
var ratioAliases = map[string]string{
	"debt_to_equity": "liabilities_to_equity",
	"debt_to_assets": "liabilities_to_assets",
}

// Ratios renders the financial ratios grouped by category, with benchmark
// marking, period-adjusted sub-rows and formula rows.
func Ratios(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "ratios",
		Title:    "Financial Ratios",
		Subtitle: "Profitability, Liquidity, Leverage, and Efficiency metrics",
		Icon:     "🧮",
	}
	ratios := r.Doc.Get("financial_ratios")
	if !ratios.Truthy() || len(periods) == 0 {
		return sec
	}

	cols := []string{"Ratio"}
	for _, pk := range periods {
		cols = append(cols, r.PeriodLabel(pk))
	}
	g := newGrid(r, periods, "", cols)
	rendered := map[string]bool{}

	for _, cat := range ratioCategories {
		data := ratios.Get(cat.key)
		if !data.Truthy() {
			continue
		}
		g.header(SectionHeader, cat.title)
		for _, rk := range cat.keys {
			if alias, ok := ratioAliases[rk]; ok && rendered[alias] {
				continue
			}
			item := data.Get(rk)
			if !item.Truthy() || !resolve.AnyValue(item, periods) {
				continue
			}
			rendered[rk] = true
			g.ratioRows(rk, item)
		}
	}

	sec.addTable(g.table)
	return sec
}

func (g *grid) ratioRows(key string, item models.Node) {
	unit := item.Get("unit").Str()
	benchmark := item.Get("benchmark").Str()
	name := item.Get("display_name").Str()
	if name == "" {
		name = resolve.RatioDisplayName(key)
	}

	g.add(Row{
		Kind:   LineItem,
		Label:  name,
		Indent: 1,
		Badge:  benchmark,
		Cells: g.cells(func(pk string) Cell {
			v := resolve.Value(item, pk, nil)
			c := Cell{Value: v, Text: resolve.FormatRatio(v, unit)}
			if v != nil && benchmark != "" {
				c.Tone = CheckBenchmark(*v, benchmark).Tone()
			}
			return c
		}),
	})

	if item.Has("values_period_adjusted") && item.Has("values_standard") {
		days := item.Get("period_days")
		cells, ok := g.dualCells(item.Get("values_standard"), item.Get("values_period_adjusted"), func(pk string, v float64) string {
			pd := days.Get(pk).FloatOr(365)
			return fmt.Sprintf("%s (%.0fd period)", resolve.FormatDays(&v), pd)
		})
		if ok {
			g.add(Row{Kind: LineItem, Style: SubRow, Label: "↳ Period-Adjusted", Indent: 2, Cells: cells})
		}
	}

	if formula := item.Get("formula").Str(); formula != "" {
		g.add(Row{Kind: LineItem, Style: FormulaRow, Label: "Formula: " + formula, Indent: 2})
	}
}
