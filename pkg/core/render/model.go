// Package render projects a classified, validated financial model document
// into report sections of typed rows. Renderers are pure: they read through
// the resolver, never fail, and skip whatever they cannot resolve.
package render

import (
	"financial_report/pkg/core/resolve"
	"financial_report/pkg/models"
)

// RowKind is the structural role of a table row.
type RowKind string

const (
	SectionHeader    RowKind = "section-header"
	SubsectionHeader RowKind = "subsection-header"
	LineItem         RowKind = "line-item"
	Total            RowKind = "total"
	GrandTotal       RowKind = "grand-total"
)

// Style refines how a row is emphasised.
type Style string

const (
	Plain        Style = ""
	GrossProfit  Style = "gross-profit"
	ExpenseTotal Style = "expense-total"
	EBITDA       Style = "ebitda"
	Margin       Style = "margin"
	Italic       Style = "italic"
	SubRow       Style = "sub-row"
	FormulaRow   Style = "formula"
)

// Tone colours callouts, badges and cells.
type Tone string

const (
	Neutral Tone = ""
	Success Tone = "success"
	Info    Tone = "info"
	Warning Tone = "warning"
	Danger  Tone = "danger"
)

// Cell is one period value. Text is always the display string; Value is set
// for numeric cells so spreadsheet writers can keep numbers numeric.
type Cell struct {
	Value *float64 `json:"value,omitempty"`
	Text  string   `json:"text"`
	Tone  Tone     `json:"tone,omitempty"`
}

// Row is one table line.
type Row struct {
	Kind    RowKind `json:"kind"`
	Style   Style   `json:"style,omitempty"`
	Label   string  `json:"label"`
	Indent  int     `json:"indent,omitempty"`
	Tooltip string  `json:"tooltip,omitempty"`
	Badge   string  `json:"badge,omitempty"`
	Cells   []Cell  `json:"cells,omitempty"`
}

// Table is a grid with a leading label column.
type Table struct {
	Title   string   `json:"title,omitempty"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Item is an entry in a field list, bullet list or callout.
type Item struct {
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
	Tone  Tone   `json:"tone,omitempty"`
	Badge string `json:"badge,omitempty"`
}

// BlockKind distinguishes the content types of a section.
type BlockKind string

const (
	TableBlock   BlockKind = "table"
	FieldsBlock  BlockKind = "fields"
	ListBlock    BlockKind = "list"
	CalloutBlock BlockKind = "callout"
)

// Block is one ordered piece of section content.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Title string    `json:"title,omitempty"`
	Table *Table    `json:"table,omitempty"`
	Items []Item    `json:"items,omitempty"`
	Text  string    `json:"text,omitempty"`
	Tone  Tone      `json:"tone,omitempty"`
}

// Section is a rendered report section. Empty sections are omitted by
// writers.
type Section struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Icon     string  `json:"icon,omitempty"`
	Blocks   []Block `json:"blocks"`
}

// Empty reports a section with no content.
func (s Section) Empty() bool { return len(s.Blocks) == 0 }

// Tables returns the section's tables in order.
func (s Section) Tables() []*Table {
	var out []*Table
	for _, b := range s.Blocks {
		if b.Kind == TableBlock && b.Table != nil {
			out = append(out, b.Table)
		}
	}
	return out
}

func (s *Section) addTable(t *Table) {
	if t == nil || len(t.Rows) == 0 {
		return
	}
	s.Blocks = append(s.Blocks, Block{Kind: TableBlock, Title: t.Title, Table: t})
}

func (s *Section) addFields(title string, items []Item) {
	if len(items) == 0 {
		return
	}
	s.Blocks = append(s.Blocks, Block{Kind: FieldsBlock, Title: title, Items: items})
}

func (s *Section) addList(title string, items []Item) {
	if len(items) == 0 {
		return
	}
	s.Blocks = append(s.Blocks, Block{Kind: ListBlock, Title: title, Items: items})
}

func (s *Section) addCallout(title, text string, tone Tone) {
	if text == "" {
		return
	}
	s.Blocks = append(s.Blocks, Block{Kind: CalloutBlock, Title: title, Text: text, Tone: tone})
}

// =============================================================================
// TABLE BUILDER
// =============================================================================

// grid builds period-column tables for one section.
type grid struct {
	r       *resolve.Resolver
	periods []string
	table   *Table
}

func newGrid(r *resolve.Resolver, periods []string, title string, columns []string) *grid {
	return &grid{r: r, periods: periods, table: &Table{Title: title, Columns: columns}}
}

func (g *grid) add(row Row) { g.table.Rows = append(g.table.Rows, row) }

func (g *grid) header(kind RowKind, label string) {
	g.add(Row{Kind: kind, Label: label})
}

// cells renders one cell per period using fn.
func (g *grid) cells(fn func(pk string) Cell) []Cell {
	out := make([]Cell, len(g.periods))
	for i, pk := range g.periods {
		out[i] = fn(pk)
	}
	return out
}

// numbers renders a line item's values with def for absent periods.
func (g *grid) numbers(item models.Node, def *float64) []Cell {
	return g.cells(func(pk string) Cell {
		return NumberCell(resolve.Value(item, pk, def))
	})
}

// percents renders a line item's values as percentages.
func (g *grid) percents(item models.Node, def *float64) []Cell {
	return g.cells(func(pk string) Cell {
		v := resolve.Value(item, pk, def)
		return Cell{Value: v, Text: resolve.FormatPercentage(v, 2)}
	})
}

// NumberCell formats a figure.
func NumberCell(v *float64) Cell {
	return Cell{Value: v, Text: resolve.FormatNumber(v, 0)}
}

// TextCell wraps display text.
func TextCell(s string) Cell {
	if s == "" {
		s = "-"
	}
	return Cell{Text: s}
}
