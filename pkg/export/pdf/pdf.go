// Package pdf draws a report straight from the row model with fpdf. The
// output is always light themed with every section expanded.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"financial_report/pkg/core/render"
	"financial_report/pkg/core/utils"
	"financial_report/pkg/export"
)

type rgb struct{ r, g, b int }

var (
	headerBg    = rgb{0x1E, 0x3A, 0x5F}
	sectionBg   = rgb{0xE8, 0xF0, 0xFE}
	sectionFg   = rgb{0x1D, 0x4E, 0xD8}
	totalBg     = rgb{0xE6, 0xF4, 0xEA}
	totalFg     = rgb{0x04, 0x78, 0x57}
	grandBg     = rgb{0xDB, 0xEA, 0xFE}
	ebitdaBg    = rgb{0xF3, 0xE8, 0xFF}
	ebitdaFg    = rgb{0x6D, 0x28, 0xD9}
	dangerFg    = rgb{0xB9, 0x1C, 0x1C}
	dangerBg    = rgb{0xFE, 0xE2, 0xE2}
	warningFg   = rgb{0xB4, 0x53, 0x09}
	warningBg   = rgb{0xFE, 0xF3, 0xC7}
	altBg       = rgb{0xF8, 0xFA, 0xFC}
	borderColor = rgb{0xD1, 0xD5, 0xDB}
	mutedFg     = rgb{0x64, 0x74, 0x8B}
	black       = rgb{0x0F, 0x17, 0x2A}
	white       = rgb{0xFF, 0xFF, 0xFF}
)

const (
	margin    = 12.0
	lineH     = 5.0
	rowH      = 6.0
	landscape = 4 // periods above which the page turns
)

type doc struct {
	p   *fpdf.Fpdf
	tr  func(string) string
	rep *render.Report
}

// Render returns the PDF bytes.
func Render(rep *render.Report) ([]byte, error) {
	orientation := "P"
	if len(rep.Periods) > landscape {
		orientation = "L"
	}
	p := fpdf.New(orientation, "mm", "A4", "")
	p.SetMargins(margin, margin, margin)
	p.SetAutoPageBreak(true, margin)
	p.SetTitle(rep.Header.CompanyName+" - Financial Analysis", true)
	p.SetCreator(rep.Footer.PreparedBy, true)

	d := &doc{p: p, tr: p.UnicodeTranslatorFromDescriptor(""), rep: rep}
	p.SetFooterFunc(func() {
		p.SetY(-10)
		d.font("I", 7, mutedFg)
		p.CellFormat(0, 4, d.text(rep.Footer.Confidential), "", 0, "L", false, 0, "")
		p.CellFormat(0, 4, fmt.Sprintf("Page %d", p.PageNo()), "", 0, "R", false, 0, "")
	})

	p.AddPage()
	d.header()
	for _, sec := range rep.Sections {
		d.section(sec)
	}
	d.footer()

	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("PDF_RENDER_FAILED: %w", err)
	}
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF_RENDER_FAILED: %w", err)
	}
	return buf.Bytes(), nil
}

// text drops glyphs the core fonts cannot draw and converts to cp1252.
func (d *doc) text(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\uFE0F' || r == '\u200D':
		case r < 0x2000, strings.ContainsRune("€–—‘’“”•…", r):
			b.WriteRune(r)
		}
	}
	return d.tr(strings.TrimSpace(b.String()))
}

func (d *doc) font(style string, size float64, c rgb) {
	d.p.SetFont("Arial", style, size)
	d.p.SetTextColor(c.r, c.g, c.b)
}

func (d *doc) fill(c rgb) { d.p.SetFillColor(c.r, c.g, c.b) }

func (d *doc) width() float64 {
	w, _ := d.p.GetPageSize()
	return w - 2*margin
}

// ensure starts a new page when h does not fit.
func (d *doc) ensure(h float64) bool {
	_, ph := d.p.GetPageSize()
	if d.p.GetY()+h > ph-margin-6 {
		d.p.AddPage()
		return true
	}
	return false
}

func (d *doc) header() {
	h := d.rep.Header
	d.fill(headerBg)
	d.font("B", 18, white)
	d.p.CellFormat(0, 12, d.text(h.CompanyName), "", 1, "L", true, 0, "")

	d.font("", 9, black)
	for _, kv := range [][2]string{
		{"Registration No.", h.RegistrationNo},
		{"Principal Activities", h.PrincipalActivities},
		{"Financial Year End", h.FinancialYearEnd},
		{"Coverage", h.Coverage},
		{"Auditor", h.Auditor},
		{"Prepared By", h.PreparedBy},
		{"Generated", h.GeneratedOn},
		{"Schema", h.Schema},
	} {
		if kv[1] == "" {
			continue
		}
		d.font("B", 9, black)
		d.p.CellFormat(40, lineH, kv[0], "", 0, "L", false, 0, "")
		d.font("", 9, black)
		d.p.MultiCell(0, lineH, d.text(kv[1]), "", "L", false)
	}

	if len(h.Badges) > 0 {
		d.p.Ln(1)
		d.font("B", 8, black)
		for _, b := range h.Badges {
			fg, bg := toneColors(b.Tone)
			d.fill(bg)
			d.p.SetTextColor(fg.r, fg.g, fg.b)
			label := d.text(b.Label)
			d.p.CellFormat(d.p.GetStringWidth(label)+6, rowH, label, "", 0, "C", true, 0, "")
			d.p.CellFormat(2, rowH, "", "", 0, "", false, 0, "")
		}
		d.p.Ln(rowH + 2)
	}

	d.fill(warningBg)
	d.font("B", 9, warningFg)
	d.p.MultiCell(0, rowH, d.text(d.rep.Banner), "", "L", true)
	d.p.Ln(2)

	if len(d.rep.Validation.Warnings) > 0 {
		d.font("B", 9, warningFg)
		d.p.CellFormat(0, lineH, "Validation warnings", "", 1, "L", false, 0, "")
		d.font("", 8, warningFg)
		for _, w := range d.rep.Validation.Warnings {
			d.p.MultiCell(0, lineH, "- "+d.text(w), "", "L", false)
		}
		d.p.Ln(2)
	}
}

func (d *doc) section(sec render.Section) {
	d.ensure(24)
	d.p.Ln(2)
	d.fill(sectionBg)
	d.font("B", 13, sectionFg)
	d.p.CellFormat(0, 9, d.text(sec.Title), "", 1, "L", true, 0, "")
	if sec.Subtitle != "" {
		d.font("I", 8, mutedFg)
		d.p.MultiCell(0, lineH, d.text(sec.Subtitle), "", "L", false)
	}
	d.p.Ln(1)

	for _, b := range sec.Blocks {
		switch b.Kind {
		case render.TableBlock:
			d.table(b.Table)
		case render.FieldsBlock, render.ListBlock:
			d.items(b)
		case render.CalloutBlock:
			d.callout(b)
		}
	}
}

func (d *doc) blockTitle(title string) {
	if title == "" {
		return
	}
	d.ensure(12)
	d.font("B", 10, sectionFg)
	d.p.CellFormat(0, 7, d.text(title), "", 1, "L", false, 0, "")
}

// columnWidths gives the label column the larger share.
func (d *doc) columnWidths(n int) []float64 {
	total := d.width()
	if n <= 1 {
		return []float64{total}
	}
	label := total * 0.38
	if n > 5 {
		label = total * 0.28
	}
	rest := (total - label) / float64(n-1)
	out := make([]float64, n)
	out[0] = label
	for i := 1; i < n; i++ {
		out[i] = rest
	}
	return out
}

func (d *doc) tableHeader(t *render.Table, widths []float64) {
	lines := 1
	for _, c := range t.Columns {
		if n := len(export.ColumnLines(c)); n > lines {
			lines = n
		}
	}
	h := float64(lines)*4 + 2
	x, y := d.p.GetXY()
	d.fill(headerBg)
	d.font("B", 8, white)
	for i, c := range t.Columns {
		d.p.Rect(x, y, widths[i], h, "F")
		align := "R"
		if i == 0 {
			align = "L"
		}
		for j, l := range export.ColumnLines(c) {
			d.p.SetXY(x, y+1+float64(j)*4)
			d.p.CellFormat(widths[i], 4, d.fit(d.text(l), widths[i]-2), "", 0, align, false, 0, "")
		}
		x += widths[i]
	}
	d.p.SetXY(margin, y+h)
}

// fit trims s until it fits the width.
func (d *doc) fit(s string, w float64) string {
	if d.p.GetStringWidth(s) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 1 && d.p.GetStringWidth(string(r)+"...") > w {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func (d *doc) table(t *render.Table) {
	if t == nil || len(t.Rows) == 0 {
		return
	}
	d.blockTitle(t.Title)
	widths := d.columnWidths(len(t.Columns))
	d.ensure(20)
	d.tableHeader(t, widths)
	d.p.SetDrawColor(borderColor.r, borderColor.g, borderColor.b)

	alt := false
	for _, r := range t.Rows {
		if d.ensure(rowH) {
			d.tableHeader(t, widths)
		}
		fg, bg, style, filled := rowLook(r, alt)
		if r.Kind == render.LineItem {
			alt = !alt
		}
		d.fill(bg)
		d.font(style, 8, fg)

		label := strings.Repeat("  ", r.Indent) + d.text(r.Label)
		if r.Badge != "" {
			label += " [" + d.text(r.Badge) + "]"
		}
		if len(r.Cells) == 0 {
			d.p.CellFormat(d.width(), rowH, d.fit(label, d.width()-2), "1", 1, "L", filled, 0, "")
			continue
		}
		d.p.CellFormat(widths[0], rowH, d.fit(label, widths[0]-2), "1", 0, "L", filled, 0, "")
		for i, c := range r.Cells {
			w := widths[len(widths)-1]
			if i+1 < len(widths) {
				w = widths[i+1]
			}
			cfg := fg
			if c.Tone == render.Danger || c.Tone == render.Warning || c.Tone == render.Success {
				cfg, _ = toneColors(c.Tone)
			}
			d.p.SetTextColor(cfg.r, cfg.g, cfg.b)
			d.p.CellFormat(w, rowH, d.fit(d.text(c.Text), w-2), "1", 0, "R", filled, 0, "")
		}
		d.p.Ln(-1)
	}
	d.p.Ln(3)
}

func rowLook(r render.Row, alt bool) (fg, bg rgb, style string, filled bool) {
	fg, bg = black, white
	switch r.Kind {
	case render.SectionHeader:
		fg, bg, style, filled = sectionFg, sectionBg, "B", true
	case render.SubsectionHeader:
		style = "BI"
	case render.Total:
		fg, bg, style, filled = totalFg, totalBg, "B", true
	case render.GrandTotal:
		fg, bg, style, filled = headerBg, grandBg, "B", true
	default:
		if alt {
			bg, filled = altBg, true
		}
	}
	switch r.Style {
	case render.EBITDA:
		fg, bg, style, filled = ebitdaFg, ebitdaBg, "B", true
	case render.GrossProfit, render.ExpenseTotal:
		style = "B"
	case render.Margin, render.Italic, render.SubRow, render.FormulaRow:
		fg, style = mutedFg, "I"
	}
	return fg, bg, style, filled
}

func toneColors(t render.Tone) (fg, bg rgb) {
	switch t {
	case render.Danger:
		return dangerFg, dangerBg
	case render.Warning:
		return warningFg, warningBg
	case render.Success:
		return totalFg, totalBg
	}
	return sectionFg, sectionBg
}

func (d *doc) items(b render.Block) {
	d.blockTitle(b.Title)
	for _, it := range b.Items {
		d.ensure(rowH)
		fg := black
		if it.Tone != render.Neutral && it.Tone != render.Info {
			fg, _ = toneColors(it.Tone)
		}
		text := d.text(it.Text)
		if it.Badge != "" {
			text = "[" + d.text(it.Badge) + "] " + text
		}
		if b.Kind == render.FieldsBlock {
			d.font("B", 8, black)
			d.p.CellFormat(55, lineH, d.fit(d.text(it.Label), 54), "", 0, "L", false, 0, "")
			d.font("", 8, fg)
			d.p.MultiCell(0, lineH, text, "", "L", false)
			continue
		}
		if it.Label != "" {
			text = d.text(it.Label) + ": " + text
		}
		d.font("", 8, fg)
		d.p.MultiCell(0, lineH, "- "+text, "", "L", false)
	}
	d.p.Ln(2)
}

func (d *doc) callout(b render.Block) {
	d.ensure(14)
	fg, bg := toneColors(b.Tone)
	d.fill(bg)
	if b.Title != "" {
		d.font("B", 9, fg)
		d.p.CellFormat(0, rowH, d.text(b.Title), "", 1, "L", true, 0, "")
	}
	d.font("", 8, black)
	d.p.MultiCell(0, lineH, d.text(utils.MarkdownToText(b.Text)), "", "L", true)
	d.p.Ln(2)
}

func (d *doc) footer() {
	f := d.rep.Footer
	d.ensure(40)
	d.p.Ln(4)
	d.p.SetDrawColor(borderColor.r, borderColor.g, borderColor.b)
	x, y := d.p.GetXY()
	d.p.Line(x, y, x+d.width(), y)
	d.p.Ln(2)
	d.font("", 7, mutedFg)
	d.p.MultiCell(0, 4, d.text(f.Disclaimer), "", "L", false)
	d.font("B", 8, black)
	d.p.CellFormat(0, lineH, d.text(f.Copyright), "", 1, "L", false, 0, "")
	d.font("", 7, mutedFg)
	d.p.CellFormat(0, 4, d.text(f.CopyrightSub), "", 1, "L", false, 0, "")
	d.p.CellFormat(0, 4, d.text(fmt.Sprintf("Prepared by %s on %s", f.PreparedBy, f.GeneratedOn)), "", 1, "L", false, 0, "")
}
