// Package html writes a report as a standalone HTML document with a theme
// toggle and collapsible sections.
package html

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"financial_report/pkg/core/render"
	"financial_report/pkg/core/utils"
	"financial_report/pkg/export"
)

// Theme selects the initial colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Options control presentation only.
type Options struct {
	Theme    Theme
	Expanded bool // open every section
	Print    bool // hide the toggle and nav, for PDF and printing
}

//go:embed report.html.tmpl
var reportTmpl string

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"lines":    export.ColumnLines,
	"markdown": markdown,
	"indent":   func(n int) template.CSS { return template.CSS(fmt.Sprintf("padding-left:%dpx", 12+n*18)) },
	"rowClass": rowClass,
}).Parse(reportTmpl))

type view struct {
	*render.Report
	Opts Options
}

// Render writes the full document.
func Render(rep *render.Report, opts Options) (string, error) {
	if opts.Theme == "" {
		opts.Theme = Light
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view{Report: rep, Opts: opts}); err != nil {
		return "", fmt.Errorf("HTML_RENDER_FAILED: %w", err)
	}
	return buf.String(), nil
}

// markdown renders narrative text. Plain text keeps its line breaks.
func markdown(s string) template.HTML {
	out, err := utils.MarkdownToHTML(strings.ReplaceAll(s, "\n", "  \n"))
	if err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(out)
}

func rowClass(r render.Row) string {
	cls := string(r.Kind)
	if r.Style != render.Plain {
		cls += " " + string(r.Style)
	}
	return cls
}
