package utils

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
)

// CleanMarkdown strips conversational filler and outer markdown code blocks.
// It ensures the output is pure Markdown ready for rendering.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	// Strip outer wrapping code blocks if present (e.g. ```markdown ... ```)
	if strings.HasPrefix(cleaned, "```markdown") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```markdown")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}

// markdown renders without raw HTML so narrative text from documents is
// escaped.
var markdown = goldmark.New()

// MarkdownToHTML converts narrative text (rationales, notes, assessments) to
// an HTML fragment. Input without markdown syntax comes back as a paragraph.
func MarkdownToHTML(input string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(CleanMarkdown(input)), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// MarkdownToText renders input and keeps only its text, for outputs that
// cannot show emphasis. Input that fails to render is returned trimmed.
func MarkdownToText(input string) string {
	html, err := MarkdownToHTML(input)
	if err != nil {
		return strings.TrimSpace(input)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(input)
	}
	return strings.TrimSpace(doc.Text())
}
