package render

import (
	"strings"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/core/schema"
	"financial_report/pkg/models"
)

// legacyOpexCategories are the fixed category names of the oldest schema.
var legacyOpexCategories = []string{
	"administrative", "staff_costs", "depreciation", "other",
	"administrative_expenses", "other_expenses", "selling_expenses",
}

// periodColumns builds the header row: a description column then one column
// per period, with the source type appended when the label lacks it.
func periodColumns(r *resolve.Resolver, periods []string, first string) []string {
	cols := []string{first}
	currency := r.Currency()
	for _, pk := range periods {
		label := r.PeriodLabel(pk)
		if schema.HasSourceSuffix(label) {
			cols = append(cols, label+"\n"+currency)
			continue
		}
		typ := "Mgmt"
		if r.PeriodType(pk) == resolve.Audited {
			typ = "Audited"
		}
		cols = append(cols, label+"\n("+typ+")\n"+currency)
	}
	return cols
}

// PnL renders the statement of comprehensive income.
func PnL(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "pnl",
		Title:    "Statement of Comprehensive Income / P&L",
		Subtitle: "Revenue, Cost of Sales, Operating Expenses, and Net Profit",
		Icon:     "📈",
	}
	if len(periods) == 0 {
		return sec
	}
	is := r.IncomeStatement()
	g := newGrid(r, periods, "", periodColumns(r, periods, "Description"))

	g.header(SectionHeader, "REVENUE")
	revenue := is.Get("revenue")
	g.lineItems(revenue.Get("line_items"), 1)
	g.add(Row{Kind: Total, Label: "Total Revenue", Cells: g.numbers(revenue.Get("total"), resolve.Zero())})

	g.header(SectionHeader, "COST OF SALES")
	cos := is.Get("cost_of_sales")
	g.lineItems(cos.Get("line_items"), 1)
	g.add(Row{Kind: Total, Label: "Total Cost of Sales", Cells: g.numbers(cos.Get("total"), resolve.Zero())})

	g.add(Row{Kind: Total, Style: GrossProfit, Label: "GROSS PROFIT", Cells: g.numbers(is.Get("gross_profit"), resolve.Zero())})
	g.marginRow(is.Get("gross_profit_margin"), "GP Margin %")

	g.conditionalBlock(is.Get("other_income"), "OTHER INCOME", "Total Other Income", Plain, false)

	rendered := g.operatingExpenses(is.Get("operating_expenses"))

	if other := is.Get("other_expenses"); other.Truthy() && !rendered["other_expenses"] {
		g.conditionalBlock(other, "OTHER EXPENSES", "Total Other Expenses", ExpenseTotal, true)
	}

	ebit := is.Get("operating_profit")
	if !ebit.Exists() {
		ebit = is.Get("profit_from_operations")
	}
	g.add(Row{Kind: Total, Style: GrossProfit, Label: "OPERATING PROFIT (EBIT)", Cells: g.numbers(ebit, resolve.Zero())})
	g.marginRow(is.Get("operating_profit_margin"), "Operating Margin %")

	g.conditionalBlock(is.Get("finance_costs"), "FINANCE COSTS", "Total Finance Costs", Plain, false)

	g.add(Row{Kind: GrandTotal, Label: "PROFIT BEFORE TAX", Cells: g.numbers(is.Get("profit_before_tax"), resolve.Zero())})
	g.marginRow(is.Get("pbt_margin"), "PBT Margin %")

	g.taxation(is.Get("taxation"))

	npat := is.Get("net_profit_after_tax")
	if !npat.Exists() {
		npat = is.Get("profit_after_tax")
	}
	g.add(Row{Kind: GrandTotal, Label: "NET PROFIT", Cells: g.numbers(npat, resolve.Zero())})
	g.marginRow(is.Get("net_profit_margin"), "Net Profit Margin %")

	if ebitda := is.Get("ebitda"); ebitda.Truthy() {
		g.add(Row{Kind: Total, Style: EBITDA, Label: "EBITDA", Cells: g.numbers(ebitda, resolve.Zero())})
	}

	sec.addTable(g.table)
	return sec
}

// lineItems renders every line item that has a value in some period.
func (g *grid) lineItems(items models.Node, indent int) {
	items.Each(func(key string, item models.Node) bool {
		if resolve.AnyValue(item, g.periods) {
			g.add(Row{Kind: LineItem, Label: resolve.DisplayName(item, key), Indent: indent, Cells: g.numbers(item, nil)})
		}
		return true
	})
}

// nonZeroLineItems renders line items with a non-zero value in some period,
// carrying the "includes" tooltip of consolidated items.
func (g *grid) nonZeroLineItems(items models.Node, indent int) {
	items.Each(func(key string, item models.Node) bool {
		if resolve.AnyNonZero(item, g.periods) {
			g.add(Row{
				Kind:    LineItem,
				Label:   resolve.DisplayName(item, key),
				Indent:  indent,
				Tooltip: item.Get("includes").Str(),
				Cells:   g.numbers(item, nil),
			})
		}
		return true
	})
}

func (g *grid) marginRow(item models.Node, label string) {
	if !item.Truthy() {
		return
	}
	g.add(Row{Kind: LineItem, Style: Margin, Label: label, Indent: 1, Cells: g.percents(item, resolve.Zero())})
}

// conditionalBlock renders a header, line items and total when the block has
// line items or a non-zero total.
func (g *grid) conditionalBlock(block models.Node, title, totalLabel string, totalStyle Style, nonZeroOnly bool) {
	lines := block.Get("line_items")
	total := block.Get("total")
	if !lines.Truthy() && !resolve.AnyNonZero(total, g.periods) {
		return
	}
	g.header(SectionHeader, title)
	if nonZeroOnly {
		g.nonZeroLineItems(lines, 1)
	} else {
		g.lineItems(lines, 1)
	}
	g.add(Row{Kind: Total, Style: totalStyle, Label: totalLabel, Cells: g.numbers(total, resolve.Zero())})
}

func isExpenseCategory(n models.Node) bool {
	return n.IsObject() && (n.Has("line_items") || n.Has("total"))
}

// operatingExpenses detects nested, flat or legacy shapes and returns the
// category keys it rendered.
func (g *grid) operatingExpenses(opex models.Node) map[string]bool {
	g.header(SectionHeader, "OPERATING EXPENSES")
	rendered := map[string]bool{}

	nested := false
	opex.Each(func(key string, item models.Node) bool {
		if key != "total" && key != "line_items" && isExpenseCategory(item) {
			nested = true
			return false
		}
		return true
	})

	switch {
	case nested:
		totals := make([]float64, len(g.periods))
		opex.Each(func(key string, cat models.Node) bool {
			if key == "total" || key == "line_items" || !isExpenseCategory(cat) {
				return true
			}
			rendered[key] = true
			g.expenseCategory(key, cat, totals)
			return true
		})
		cells := make([]Cell, len(totals))
		for i := range totals {
			cells[i] = NumberCell(resolve.F(totals[i]))
		}
		g.add(Row{Kind: Total, Style: ExpenseTotal, Label: "TOTAL OPERATING EXPENSES", Cells: cells})

	case opex.Has("line_items"):
		g.nonZeroLineItems(opex.Get("line_items"), 1)
		g.add(Row{Kind: Total, Style: ExpenseTotal, Label: "TOTAL OPERATING EXPENSES", Cells: g.numbers(opex.Get("total"), resolve.Zero())})

	default:
		for _, key := range legacyOpexCategories {
			cat := opex.Get(key)
			switch {
			case !cat.IsObject():
			case cat.Get("line_items").Truthy():
				g.header(SubsectionHeader, resolve.SnakeToTitle(key))
				g.lineItems(cat.Get("line_items"), 2)
			case resolve.AnyValue(cat, g.periods):
				// legacy categories are usually bare amounts
				g.add(Row{Kind: LineItem, Label: resolve.SnakeToTitle(key), Indent: 1, Cells: g.numbers(cat, nil)})
			}
		}
		g.add(Row{Kind: Total, Style: ExpenseTotal, Label: "TOTAL OPERATING EXPENSES", Cells: g.numbers(opex.Get("total"), resolve.Zero())})
	}
	return rendered
}

// expenseCategory renders one nested opex category and accumulates its total.
func (g *grid) expenseCategory(key string, cat models.Node, totals []float64) {
	lines := cat.Get("line_items")
	total := cat.Get("total")

	name := total.Get("display_name").Str()
	if name == "" {
		name = resolve.SnakeToTitle(key)
	}
	subsection := strings.ReplaceAll(name, "Total ", "")

	accumulate := func() []Cell {
		cells := g.numbers(total, resolve.Zero())
		for i, c := range cells {
			if c.Value != nil {
				totals[i] += *c.Value
			}
		}
		return cells
	}

	switch {
	case lines.Truthy():
		g.header(SubsectionHeader, subsection)
		g.nonZeroLineItems(lines, 2)
		if total.Truthy() {
			g.add(Row{Kind: Total, Style: Italic, Label: name, Indent: 1, Cells: accumulate()})
		}
	case total.Truthy():
		g.add(Row{Kind: LineItem, Label: subsection, Indent: 1, Cells: accumulate()})
	}
}

var fixedTaxLines = []struct{ key, label string }{
	{"current_tax", "Current Tax"},
	{"over_under_provision", "(Over)/Under Provision"},
	{"deferred_tax", "Deferred Tax"},
}

func (g *grid) taxation(tax models.Node) {
	g.header(SectionHeader, "TAXATION")
	if lines := tax.Get("line_items"); lines.Truthy() {
		lines.Each(func(key string, item models.Node) bool {
			if item.IsObject() && resolve.AnyValue(item, g.periods) {
				g.add(Row{Kind: LineItem, Label: resolve.DisplayName(item, key), Indent: 1, Cells: g.numbers(item, nil)})
			}
			return true
		})
	} else {
		for _, f := range fixedTaxLines {
			item := tax.Get(f.key)
			if item.Truthy() && resolve.AnyNonZero(item, g.periods) {
				g.add(Row{Kind: LineItem, Label: f.label, Indent: 1, Cells: g.numbers(item, nil)})
			}
		}
	}
	g.add(Row{Kind: Total, Label: "Total Taxation", Cells: g.numbers(tax.Get("total"), resolve.Zero())})
}
