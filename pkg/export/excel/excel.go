// Package excel writes a report as an eight-sheet workbook.
package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"financial_report/pkg/core/render"
	"financial_report/pkg/core/resolve"
	"financial_report/pkg/export"
)

// Palette colours, hex without '#'.
const (
	HeaderBg     = "1E3A5F"
	HeaderFont   = "FFFFFF"
	SectionBg    = "E8F0FE"
	SectionFont  = "1D4ED8"
	TotalBg      = "E6F4EA"
	TotalFont    = "047857"
	GrandBg      = "DBEAFE"
	GrandFont    = "1E3A5F"
	ErrorBg      = "FEE2E2"
	ErrorFont    = "B91C1C"
	WarningFont  = "B45309"
	EBITDABg     = "F3E8FF"
	EBITDAFont   = "6D28D9"
	AlternateBg  = "F8FAFC"
	BorderColour = "D1D5DB"

	NumberFormat = `#,##0;(#,##0);"-"`
)

// sheetSpec maps a workbook sheet onto report sections.
type sheetSpec struct {
	name     string
	sections []string
	freeze   bool
}

// sheets lists the workbook layout in order.
var sheets = []sheetSpec{
	{name: "Summary"},
	{name: "P&L", sections: []string{"pnl"}, freeze: true},
	{name: "Balance Sheet", sections: []string{"bs"}, freeze: true},
	{name: "Ratios", sections: []string{"ratios"}, freeze: true},
	{name: "Working Capital", sections: []string{"wc"}, freeze: true},
	{name: "DSCR & Funding", sections: []string{"dscr", "funding", "profile"}, freeze: true},
	{name: "TNW", sections: []string{"tnw"}, freeze: true},
	{name: "Observations", sections: []string{"summary"}},
}

// SheetNames returns the sheet names in workbook order.
func SheetNames() []string {
	out := make([]string, len(sheets))
	for i, s := range sheets {
		out[i] = s.name
	}
	return out
}

type styleKey struct {
	bold, italic bool
	size         float64
	font, fill   string
	align        string
	number       bool
	indent       int
	wrap         bool
}

type writer struct {
	f      *excelize.File
	styles map[styleKey]int
	rep    *render.Report
}

// Render builds the workbook and returns the .xlsx bytes.
func Render(rep *render.Report) ([]byte, error) {
	w := &writer{f: excelize.NewFile(), styles: map[styleKey]int{}, rep: rep}
	defer w.f.Close()

	for i, spec := range sheets {
		if i == 0 {
			if err := w.f.SetSheetName("Sheet1", spec.name); err != nil {
				return nil, fmt.Errorf("EXCEL_RENDER_FAILED: %w", err)
			}
		} else if _, err := w.f.NewSheet(spec.name); err != nil {
			return nil, fmt.Errorf("EXCEL_RENDER_FAILED: %w", err)
		}

		var err error
		switch spec.name {
		case "Summary":
			err = w.summary(spec.name)
		case "Observations":
			err = w.observations(spec.name, spec.sections)
		default:
			err = w.dataSheet(spec)
		}
		if err != nil {
			return nil, fmt.Errorf("EXCEL_RENDER_FAILED: %s: %w", spec.name, err)
		}
	}
	w.f.SetActiveSheet(0)

	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("EXCEL_RENDER_FAILED: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// STYLES
// =============================================================================

func (w *writer) style(k styleKey) (int, error) {
	if id, ok := w.styles[k]; ok {
		return id, nil
	}
	if k.size == 0 {
		k.size = 10
	}
	font := k.font
	if font == "" {
		font = "000000"
	}
	st := &excelize.Style{
		Font: &excelize.Font{Family: "Arial", Bold: k.bold, Italic: k.italic, Size: k.size, Color: font},
		Alignment: &excelize.Alignment{
			Horizontal: k.align,
			Vertical:   "center",
			WrapText:   k.wrap,
			Indent:     k.indent,
		},
		Border: []excelize.Border{
			{Type: "left", Color: BorderColour, Style: 1},
			{Type: "right", Color: BorderColour, Style: 1},
			{Type: "top", Color: BorderColour, Style: 1},
			{Type: "bottom", Color: BorderColour, Style: 1},
		},
	}
	if k.fill != "" {
		st.Fill = excelize.Fill{Type: "pattern", Color: []string{k.fill}, Pattern: 1}
	}
	if k.number {
		nf := NumberFormat
		st.CustomNumFmt = &nf
	}
	id, err := w.f.NewStyle(st)
	if err != nil {
		return 0, err
	}
	w.styles[k] = id
	return id, nil
}

func (w *writer) set(sheet string, col, row int, v interface{}, k styleKey) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(sheet, cell, v); err != nil {
		return err
	}
	id, err := w.style(k)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, cell, cell, id)
}

func (w *writer) widths(sheet string, widths ...float64) error {
	for i, wd := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(sheet, col, col, wd); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) headerRow(sheet string, row int, vals []string) error {
	for i, v := range vals {
		align := "center"
		if i == 0 {
			align = "left"
		}
		if err := w.set(sheet, i+1, row, v, styleKey{bold: true, size: 9, font: HeaderFont, fill: HeaderBg, align: align, wrap: true}); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) sectionRow(sheet string, row int, text string, ncols int) error {
	k := styleKey{bold: true, font: SectionFont, fill: SectionBg, align: "left"}
	if err := w.set(sheet, 1, row, text, k); err != nil {
		return err
	}
	for c := 2; c <= ncols; c++ {
		if err := w.set(sheet, c, row, "", k); err != nil {
			return err
		}
	}
	return nil
}

// rowStyle picks fill and font for a table row.
func rowStyle(r render.Row, alt bool) styleKey {
	k := styleKey{align: "left", indent: r.Indent}
	switch r.Kind {
	case render.SectionHeader:
		k.bold, k.font, k.fill = true, SectionFont, SectionBg
	case render.SubsectionHeader:
		k.bold, k.italic = true, true
	case render.Total:
		k.bold, k.font, k.fill = true, TotalFont, TotalBg
	case render.GrandTotal:
		k.bold, k.font, k.fill = true, GrandFont, GrandBg
	default:
		if alt {
			k.fill = AlternateBg
		}
	}
	switch r.Style {
	case render.EBITDA:
		k.bold, k.font, k.fill = true, EBITDAFont, EBITDABg
	case render.GrossProfit, render.ExpenseTotal:
		k.bold = true
	case render.Margin, render.Italic, render.SubRow, render.FormulaRow:
		k.italic = true
	}
	return k
}

func toneFont(t render.Tone, def string) string {
	switch t {
	case render.Danger:
		return ErrorFont
	case render.Warning:
		return WarningFont
	case render.Success:
		return TotalFont
	}
	return def
}

// numeric reports whether a cell is a plain figure that should stay a number.
func numeric(c render.Cell) bool {
	return c.Value != nil && c.Text == resolve.FormatNumber(c.Value, 0)
}

// =============================================================================
// SHEETS
// =============================================================================

func (w *writer) summary(sheet string) error {
	h := w.rep.Header
	if err := w.widths(sheet, 30, 60); err != nil {
		return err
	}
	if err := w.set(sheet, 1, 1, "FINANCIAL STATEMENT ANALYSIS", styleKey{bold: true, size: 14, font: HeaderBg}); err != nil {
		return err
	}
	if err := w.set(sheet, 1, 2, h.CompanyName, styleKey{bold: true, size: 12, font: SectionFont}); err != nil {
		return err
	}

	row := 4
	for _, kv := range [][2]string{
		{"Registration No.", h.RegistrationNo},
		{"Principal Activities", h.PrincipalActivities},
		{"Financial Year End", h.FinancialYearEnd},
		{"Coverage", h.Coverage},
		{"Auditor", h.Auditor},
		{"Currency", w.rep.Currency},
		{"Schema", h.Schema},
		{"Prepared By", h.PreparedBy},
		{"Generated", h.GeneratedOn},
	} {
		if kv[1] == "" {
			continue
		}
		if err := w.pair(sheet, row, kv[0], kv[1], ""); err != nil {
			return err
		}
		row++
	}

	row++
	if err := w.sectionRow(sheet, row, "PERIODS ANALYZED", 2); err != nil {
		return err
	}
	row++
	for _, b := range h.Badges {
		if err := w.pair(sheet, row, b.Label, string(b.Tone), toneFont(b.Tone, "")); err != nil {
			return err
		}
		row++
	}

	if len(w.rep.Integrity) > 0 || len(w.rep.Validation.Warnings) > 0 {
		row++
		if err := w.sectionRow(sheet, row, "DATA QUALITY", 2); err != nil {
			return err
		}
		row++
		for _, msg := range w.rep.Integrity {
			if err := w.pair(sheet, row, "Integrity", msg, ErrorFont); err != nil {
				return err
			}
			row++
		}
		for _, msg := range w.rep.Validation.Warnings {
			if err := w.pair(sheet, row, "Warning", msg, WarningFont); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func (w *writer) pair(sheet string, row int, label, value, font string) error {
	if err := w.set(sheet, 1, row, label, styleKey{bold: true, align: "left"}); err != nil {
		return err
	}
	return w.set(sheet, 2, row, value, styleKey{font: font, align: "left", wrap: true})
}

// dataSheet writes the tables of its sections, then their text blocks.
func (w *writer) dataSheet(spec sheetSpec) error {
	sheet := spec.name
	ncols := 1 + len(w.rep.Periods)
	widths := []float64{45}
	for range w.rep.Periods {
		widths = append(widths, 18)
	}
	if err := w.widths(sheet, append(widths, 18, 18)...); err != nil {
		return err
	}

	row := 1
	for _, id := range spec.sections {
		sec, ok := w.rep.Section(id)
		if !ok {
			continue
		}
		if len(spec.sections) > 1 {
			if row > 1 {
				row++
			}
			if err := w.sectionRow(sheet, row, strings.ToUpper(sec.Title), ncols); err != nil {
				return err
			}
			row++
		}
		for _, b := range sec.Blocks {
			var err error
			switch b.Kind {
			case render.TableBlock:
				row, err = w.table(sheet, row, b.Table)
			case render.FieldsBlock, render.ListBlock:
				row, err = w.items(sheet, row, b, ncols)
			case render.CalloutBlock:
				row, err = w.callout(sheet, row, b, ncols)
			}
			if err != nil {
				return err
			}
		}
	}

	if row == 1 {
		return w.set(sheet, 1, 1, "No data available", styleKey{italic: true})
	}
	if spec.freeze {
		return w.f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			XSplit:      1,
			YSplit:      1,
			TopLeftCell: "B2",
			ActivePane:  "bottomRight",
		})
	}
	return nil
}

func (w *writer) table(sheet string, row int, t *render.Table) (int, error) {
	if t == nil {
		return row, nil
	}
	if row > 1 {
		row++
	}
	if t.Title != "" && row > 1 {
		if err := w.sectionRow(sheet, row, t.Title, len(t.Columns)); err != nil {
			return row, err
		}
		row++
	}
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = strings.ToUpper(export.FlatColumn(c))
	}
	if len(header) > 0 && header[0] == "" {
		header[0] = "DESCRIPTION"
	}
	if err := w.headerRow(sheet, row, header); err != nil {
		return row, err
	}
	row++

	alt := false
	for _, r := range t.Rows {
		k := rowStyle(r, alt)
		if r.Kind == render.LineItem {
			alt = !alt
		}
		label := r.Label
		if r.Badge != "" {
			label += " [" + r.Badge + "]"
		}
		if err := w.set(sheet, 1, row, label, k); err != nil {
			return row, err
		}
		if len(r.Cells) == 0 {
			for c := 2; c <= len(t.Columns); c++ {
				if err := w.set(sheet, c, row, "", k); err != nil {
					return row, err
				}
			}
		}
		for i, c := range r.Cells {
			ck := k
			ck.indent = 0
			ck.align = "right"
			ck.font = toneFont(c.Tone, k.font)
			var v interface{} = c.Text
			if numeric(c) {
				v = *c.Value
				ck.number = true
			}
			if err := w.set(sheet, i+2, row, v, ck); err != nil {
				return row, err
			}
		}
		row++
	}
	return row, nil
}

func (w *writer) items(sheet string, row int, b render.Block, ncols int) (int, error) {
	row++
	if b.Title != "" {
		if err := w.sectionRow(sheet, row, b.Title, ncols); err != nil {
			return row, err
		}
		row++
	}
	for _, it := range b.Items {
		label := it.Label
		if label == "" {
			label = it.Badge
		}
		if err := w.set(sheet, 1, row, label, styleKey{bold: true, align: "left", font: toneFont(it.Tone, "")}); err != nil {
			return row, err
		}
		if err := w.mergedText(sheet, row, it.Text, ncols, toneFont(it.Tone, "")); err != nil {
			return row, err
		}
		row++
	}
	return row, nil
}

func (w *writer) callout(sheet string, row int, b render.Block, ncols int) (int, error) {
	row++
	if err := w.sectionRow(sheet, row, b.Title, ncols); err != nil {
		return row, err
	}
	row++
	if err := w.set(sheet, 1, row, b.Text, styleKey{size: 9, align: "left", wrap: true}); err != nil {
		return row, err
	}
	if ncols > 1 {
		last, _ := excelize.CoordinatesToCellName(ncols, row)
		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := w.f.MergeCell(sheet, first, last); err != nil {
			return row, err
		}
	}
	if err := w.f.SetRowHeight(sheet, row, 60); err != nil {
		return row, err
	}
	return row + 1, nil
}

// mergedText writes text in column B merged across the period columns.
func (w *writer) mergedText(sheet string, row int, text string, ncols int, font string) error {
	if err := w.set(sheet, 2, row, text, styleKey{size: 9, align: "left", wrap: true, font: font}); err != nil {
		return err
	}
	if ncols > 2 {
		first, _ := excelize.CoordinatesToCellName(2, row)
		last, _ := excelize.CoordinatesToCellName(ncols, row)
		return w.f.MergeCell(sheet, first, last)
	}
	return nil
}

// observations writes the summary section as topic / text / badge rows.
func (w *writer) observations(sheet string, ids []string) error {
	if err := w.widths(sheet, 28, 70, 14); err != nil {
		return err
	}
	row := 1
	for _, id := range ids {
		sec, ok := w.rep.Section(id)
		if !ok {
			continue
		}
		for _, b := range sec.Blocks {
			if row > 1 {
				row++
			}
			title := strings.ToUpper(b.Title)
			switch b.Kind {
			case render.FieldsBlock, render.ListBlock:
				if err := w.headerRow(sheet, row, []string{title, "DESCRIPTION", ""}); err != nil {
					return err
				}
				row++
				for _, it := range b.Items {
					font := toneFont(it.Tone, "")
					label := it.Label
					text := it.Text
					if label == "" {
						label, text = text, ""
					}
					if err := w.set(sheet, 1, row, label, styleKey{bold: true, align: "left", wrap: true, font: font}); err != nil {
						return err
					}
					if err := w.set(sheet, 2, row, text, styleKey{size: 9, align: "left", wrap: true}); err != nil {
						return err
					}
					if err := w.set(sheet, 3, row, it.Badge, styleKey{bold: true, align: "center", font: font}); err != nil {
						return err
					}
					row++
				}
			case render.CalloutBlock:
				if err := w.headerRow(sheet, row, []string{title, "", ""}); err != nil {
					return err
				}
				row++
				if err := w.set(sheet, 1, row, b.Text, styleKey{size: 9, align: "left", wrap: true}); err != nil {
					return err
				}
				first, _ := excelize.CoordinatesToCellName(1, row)
				last, _ := excelize.CoordinatesToCellName(3, row)
				if err := w.f.MergeCell(sheet, first, last); err != nil {
					return err
				}
				if err := w.f.SetRowHeight(sheet, row, 60); err != nil {
					return err
				}
				row++
			case render.TableBlock:
				var err error
				row, err = w.table(sheet, row, b.Table)
				if err != nil {
					return err
				}
			}
		}
	}
	if row == 1 {
		return w.set(sheet, 1, 1, "No observations available", styleKey{italic: true})
	}
	return nil
}
