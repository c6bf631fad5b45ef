package pdf

import (
	"bytes"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
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

func pageDims(t *testing.T, out []byte) (int, float64, float64) {
	t.Helper()
	ctx, err := api.ReadContext(bytes.NewReader(out), model.NewDefaultConfiguration())
	require.NoError(t, err)
	require.NoError(t, ctx.EnsurePageCount())
	dims, err := ctx.PageDims()
	require.NoError(t, err)
	require.NotEmpty(t, dims)
	return ctx.PageCount, dims[0].Width, dims[0].Height
}

func TestRender_Portrait(t *testing.T) {
	out, err := Render(sampleReport(t))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	pages, w, h := pageDims(t, out)
	assert.GreaterOrEqual(t, pages, 1)
	assert.Less(t, w, h)
}

func TestRender_LandscapeForManyPeriods(t *testing.T) {
	rep := sampleReport(t)
	rep.Periods = []string{"fy2020", "fy2021", "fy2022", "fy2023", "fy2024"}

	out, err := Render(rep)
	require.NoError(t, err)
	_, w, h := pageDims(t, out)
	assert.Greater(t, w, h)
}

func TestRender_LongTableBreaksPages(t *testing.T) {
	v := 1.0
	var rows []render.Row
	for i := 0; i < 120; i++ {
		rows = append(rows, render.Row{Kind: render.LineItem, Label: fmt.Sprintf("Line %d 📈", i), Cells: []render.Cell{{Value: &v, Text: "1"}}})
	}
	rows = append(rows, render.Row{Kind: render.SectionHeader, Label: "No cells"})
	rep := &render.Report{
		Periods: []string{"fy2024"},
		Header:  render.Header{CompanyName: "Café Holdings"},
		Sections: []render.Section{{ID: "pnl", Title: "P&L", Blocks: []render.Block{
			{Kind: render.TableBlock, Table: &render.Table{Columns: []string{"Item", "FY2024\n(Audited)"}, Rows: rows}},
		}}},
	}

	out, err := Render(rep)
	require.NoError(t, err)
	pages, _, _ := pageDims(t, out)
	assert.Greater(t, pages, 1)
}
