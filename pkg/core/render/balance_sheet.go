package render

import (
	"financial_report/pkg/core/resolve"
	"financial_report/pkg/models"
)

// bsBlock is one balance sheet sub-section with its closing total style.
type bsBlock struct {
	key        string
	title      string
	totalLabel string
	totalKind  RowKind
	totalStyle Style
}

var bsBlocks = []bsBlock{
	{"current_assets", "CURRENT ASSETS", "TOTAL CURRENT ASSETS", GrandTotal, Plain},
	{"equity", "EQUITY", "TOTAL EQUITY", GrandTotal, Plain},
	{"non_current_liabilities", "NON-CURRENT LIABILITIES", "TOTAL NON-CURRENT LIABILITIES", Total, Plain},
	{"current_liabilities", "CURRENT LIABILITIES", "TOTAL CURRENT LIABILITIES", Total, ExpenseTotal},
}

// BalanceSheet renders the statement of financial position. Every
// sub-section is iterated dynamically; items zero in every period are
// dropped, totals are always shown.
func BalanceSheet(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "bs",
		Title:    "Statement of Financial Position / Balance Sheet",
		Subtitle: "Assets, Liabilities, and Shareholders' Equity",
		Icon:     "📊",
	}
	if len(periods) == 0 {
		return sec
	}
	bs := r.BalanceSheet()
	g := newGrid(r, periods, "", periodColumns(r, periods, "Description"))

	if nca := bs.Get("non_current_assets"); nca.Truthy() {
		g.header(SectionHeader, "NON-CURRENT ASSETS")
		nca.Each(func(key string, item models.Node) bool {
			if key == "total" || !item.IsObject() {
				return true
			}
			if key == "property_plant_equipment" || item.Has("line_items") {
				g.fixedAssetGroup(item)
			} else {
				g.simpleItem(key, item)
			}
			return true
		})
		g.add(Row{Kind: GrandTotal, Label: "TOTAL NON-CURRENT ASSETS", Cells: g.numbers(nca.Get("total"), resolve.Zero())})
	}

	for i, b := range bsBlocks {
		if i == 1 {
			g.grandLine(bs.Get("total_assets"), "TOTAL ASSETS", Total, GrossProfit)
		}
		section := bs.Get(b.key)
		if !section.Truthy() {
			continue
		}
		g.header(SectionHeader, b.title)
		section.Each(func(key string, item models.Node) bool {
			if key != "total" && item.IsObject() {
				g.simpleItem(key, item)
			}
			return true
		})
		g.add(Row{Kind: b.totalKind, Style: b.totalStyle, Label: b.totalLabel, Cells: g.numbers(section.Get("total"), resolve.Zero())})
	}

	g.grandLine(bs.Get("total_liabilities"), "TOTAL LIABILITIES", Total, ExpenseTotal)
	g.grandLine(bs.Get("total_equity_and_liabilities"), "TOTAL EQUITY & LIABILITIES", Total, GrossProfit)

	sec.addTable(g.table)
	return sec
}

// fixedAssetGroup renders a sub-section with nested line items and a total,
// typically property, plant and equipment.
func (g *grid) fixedAssetGroup(group models.Node) {
	name := group.Get("display_name").StrOr("Property, Plant & Equipment")
	g.header(SubsectionHeader, name)
	g.nonZeroLineItems(group.Get("line_items"), 2)
	if total := group.Get("total"); total.Truthy() {
		g.add(Row{Kind: Total, Label: resolve.DisplayName(total, "total_ppe"), Indent: 1, Cells: g.numbers(total, resolve.Zero())})
	}
}

// simpleItem renders a single balance sheet line, reading a nested total
// when the item carries one.
func (g *grid) simpleItem(key string, item models.Node) {
	val := item
	if item.Has("total") {
		val = item.Get("total")
	}
	if !resolve.AnyNonZero(val, g.periods) {
		return
	}
	g.add(Row{Kind: LineItem, Label: resolve.DisplayName(item, key), Indent: 1, Cells: g.numbers(val, resolve.Zero())})
}

func (g *grid) grandLine(item models.Node, label string, kind RowKind, style Style) {
	if !item.Truthy() {
		return
	}
	g.add(Row{Kind: kind, Style: style, Label: label, Cells: g.numbers(item, resolve.Zero())})
}
