// Package export holds helpers shared by the report writers.
package export

import (
	"strings"
	"time"
	"unicode"

	"financial_report/pkg/core/render"
)

// Content types of the exported formats.
const (
	MimeHTML = "text/html; charset=utf-8"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimePDF  = "application/pdf"
	MimeJSON = "application/json"
)

// SafeName keeps letters, digits, '-' and '_', turns spaces into '_' and
// everything else into '_'.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Financial_Report"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Filename is the download name for an exported report.
func Filename(company string, now time.Time, ext string) string {
	return SafeName(company) + "_Financial_Analysis_" + now.Format("20060102") + "." + strings.TrimPrefix(ext, ".")
}

// ReportFilename names an export of rep.
func ReportFilename(rep *render.Report, now time.Time, ext string) string {
	return Filename(rep.Header.CompanyName, now, ext)
}

// ColumnLines splits a multi-line column header.
func ColumnLines(col string) []string {
	return strings.Split(col, "\n")
}

// FlatColumn joins a multi-line column header with spaces.
func FlatColumn(col string) string {
	return strings.Join(ColumnLines(col), " ")
}
