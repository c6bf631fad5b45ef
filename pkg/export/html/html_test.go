package html

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_report/pkg/core/render"
	"financial_report/pkg/models"
)

func sampleReport(t *testing.T) *render.Report {
	t.Helper()
	data, err := os.ReadFile("../testdata/sample_v60.json")
	require.NoError(t, err)
	doc, err := models.ParseDocument(data)
	require.NoError(t, err)
	rep, err := render.BuildReportAt(doc.Node, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return rep
}

func parse(t *testing.T, out string) *goquery.Document {
	t.Helper()
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	return dom
}

func TestRender_Interactive(t *testing.T) {
	rep := sampleReport(t)
	out, err := Render(rep, Options{})
	require.NoError(t, err)
	dom := parse(t, out)

	assert.Equal(t, "light", dom.Find("html").AttrOr("data-theme", ""))
	assert.Equal(t, "Minimal Trading Sdn. Bhd.", dom.Find(".title-card h1").Text())
	assert.Equal(t, 1, dom.Find("#theme-toggle").Length())
	assert.Equal(t, len(rep.Nav), dom.Find("nav.sections a").Length())
	assert.Equal(t, len(rep.Sections), dom.Find("details.section").Length())
	assert.Equal(t, 0, dom.Find("details.section[open]").Length())

	var revenue *goquery.Selection
	dom.Find("#section-pnl tr").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Find("td").First().Text()) == "Total Revenue" {
			revenue = s
		}
	})
	require.NotNil(t, revenue)
	assert.True(t, revenue.HasClass("total"))
	assert.Equal(t, "1,200", revenue.Find("td").Last().Text())
}

func TestRender_Print(t *testing.T) {
	rep := sampleReport(t)
	out, err := Render(rep, Options{Theme: Light, Expanded: true, Print: true})
	require.NoError(t, err)
	dom := parse(t, out)

	assert.Equal(t, 0, dom.Find("#theme-toggle").Length())
	assert.Equal(t, 0, dom.Find("nav.sections").Length())
	assert.Equal(t, 0, dom.Find("script").Length())
	assert.Equal(t, len(rep.Sections), dom.Find("details.section[open]").Length())
}

func TestRender_DarkAndEscaping(t *testing.T) {
	rep := sampleReport(t)
	rep.Header.CompanyName = "<b>Evil</b> & Co"
	out, err := Render(rep, Options{Theme: Dark})
	require.NoError(t, err)

	assert.Contains(t, out, `data-theme="dark"`)
	assert.Contains(t, out, "&lt;b&gt;Evil&lt;/b&gt; &amp; Co")
}

func TestRender_MultiLineColumnsAndCallouts(t *testing.T) {
	v := 10.0
	rep := &render.Report{
		Sections: []render.Section{{
			ID:    "custom",
			Title: "Custom",
			Blocks: []render.Block{
				{Kind: render.TableBlock, Table: &render.Table{
					Columns: []string{"Item", "FY2024\n(Audited)"},
					Rows: []render.Row{
						{Kind: render.SectionHeader, Label: "GROUP"},
						{Kind: render.LineItem, Label: "Cash", Cells: []render.Cell{{Value: &v, Text: "10"}}},
					},
				}},
				{Kind: render.CalloutBlock, Title: "Note", Text: "**bold** text", Tone: render.Warning},
			},
		}},
	}
	out, err := Render(rep, Options{})
	require.NoError(t, err)
	dom := parse(t, out)

	th := dom.Find("th").Last()
	assert.Equal(t, 1, th.Find("br").Length())
	assert.Equal(t, "2", dom.Find("tr.section-header td").AttrOr("colspan", ""))
	assert.Equal(t, "bold", dom.Find(".callout.warning strong").Last().Text())
}
