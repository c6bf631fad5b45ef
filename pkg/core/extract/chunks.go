package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ParseChunks builds an Extraction from per-page chunk content. Tables are
// pulled out of each page, the remaining text is kept line by line, and every
// table with a header plus at least one row is appended as a grid block.
func ParseChunks(chunks []string) (*Extraction, error) {
	var sb strings.Builder
	ext := &Extraction{Tables: []Table{}}

	for i, content := range chunks {
		page := i + 1
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("TENSORLAKE_CHUNK_INVALID: page %d: %v", page, err)
		}

		tables := doc.Find("table")
		matrices := make([][][]string, 0, tables.Length())
		tables.Each(func(_ int, t *goquery.Selection) {
			matrices = append(matrices, tableMatrix(t))
		})
		tables.Remove()

		fmt.Fprintf(&sb, "\n\n===== PAGE %d =====\n\n%s\n\n", page, strings.Join(textLines(doc.Selection), "\n"))

		for idx, m := range matrices {
			if len(m) < 2 {
				continue
			}
			sb.WriteString(GridTable(m[0], m[1:]))
			sb.WriteString("\n\n")
			ext.Tables = append(ext.Tables, Table{Page: page, Index: idx + 1, Rows: RowsToObjects(m)})
		}
	}

	ext.FullText = sb.String()
	return ext, nil
}

// tableMatrix reads tr rows of td/th cells as trimmed text.
func tableMatrix(t *goquery.Selection) [][]string {
	var matrix [][]string
	t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(cell.Text()))
		})
		matrix = append(matrix, row)
	})
	return matrix
}

// textLines collects every non-blank text node under s, trimmed, in
// document order.
func textLines(s *goquery.Selection) []string {
	var lines []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			if t := strings.TrimSpace(c.Text()); t != "" {
				lines = append(lines, t)
			}
		case "script", "style", "#comment":
		default:
			lines = append(lines, textLines(c)...)
		}
	})
	return lines
}

// GridTable renders headers and rows as a bordered text grid:
//
//	+------+------+
//	| Item | 2024 |
//	+======+======+
//	| Cash | 100  |
//	+------+------+
func GridTable(headers []string, rows [][]string) string {
	cols := len(headers)
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	widths := make([]int, cols)
	measure := func(r []string) {
		for i, c := range r {
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}
	measure(headers)
	for _, r := range rows {
		measure(r)
	}

	rule := func(ch string) string {
		var b strings.Builder
		b.WriteString("+")
		for _, w := range widths {
			b.WriteString(strings.Repeat(ch, w+2))
			b.WriteString("+")
		}
		return b.String()
	}
	line := func(r []string) string {
		var b strings.Builder
		b.WriteString("|")
		for i, w := range widths {
			c := ""
			if i < len(r) {
				c = r[i]
			}
			b.WriteString(" ")
			b.WriteString(c)
			b.WriteString(strings.Repeat(" ", w-utf8.RuneCountInString(c)+1))
			b.WriteString("|")
		}
		return b.String()
	}

	out := []string{rule("-"), line(headers), rule("=")}
	for _, r := range rows {
		out = append(out, line(r), rule("-"))
	}
	return strings.Join(out, "\n")
}
