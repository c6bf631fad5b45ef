package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_report/pkg/core/pipeline"
	"financial_report/pkg/core/schema"
	"financial_report/pkg/core/store"
	"financial_report/pkg/core/validate"
	"financial_report/pkg/models"
)

const sampleDoc = `{
  "company_info": {"name": "Api Trading", "periods_analyzed": {"fy2023": "FY2023", "fy2024": "FY2024"}},
  "statement_of_comprehensive_income": {"revenue": {"total": {"values": {"fy2023": 1000, "fy2024": 1200}}}},
  "statement_of_financial_position": {"total_assets": {"values": {"fy2023": 500, "fy2024": 650}}},
  "financial_ratios": {"liquidity_ratios": {"current_ratio": {"values": {"fy2023": 1.5, "fy2024": 1.6}, "unit": "x"}}}
}`

type MockProcessor struct {
	ProcessFunc func(ctx context.Context, data []byte, opts pipeline.Options) (*pipeline.Result, error)
}

func (m *MockProcessor) Process(ctx context.Context, data []byte, opts pipeline.Options) (*pipeline.Result, error) {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, data, opts)
	}
	return defaultResult(opts), nil
}

func defaultResult(opts pipeline.Options) *pipeline.Result {
	return &pipeline.Result{
		ReportID: "r-1",
		Filename: opts.Filename,
		Schema:   schema.V6_0,
		Document: models.MustParseDocument(sampleDoc),
		HTML:     "<html>report</html>",
		Warnings: []string{"w1"},
	}
}

func (m *MockProcessor) ProcessMany(ctx context.Context, inputs []pipeline.Input, opts pipeline.Options) []pipeline.BatchResult {
	out := make([]pipeline.BatchResult, len(inputs))
	for i, in := range inputs {
		o := opts
		o.Filename = in.Filename
		out[i].Filename = in.Filename
		out[i].Result, out[i].Err = m.Process(ctx, in.Data, o)
	}
	return out
}

type memStore struct{ reports map[string]*models.StoredReport }

func (s *memStore) Save(_ context.Context, r *models.StoredReport) error {
	s.reports[r.ID] = r
	return nil
}

func (s *memStore) Load(_ context.Context, id string) (*models.StoredReport, error) {
	if r, ok := s.reports[id]; ok {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func newRouter(proc Processor, reports store.ReportStore, token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(proc, reports, 1<<20)
	h.now = func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	h.RegisterPublic(r)
	authed := r.Group("/", BearerAuth(token))
	h.RegisterRoutes(authed)
	return r
}

type upload struct {
	field, name, contentType string
	data                     []byte
}

func multipartBody(t *testing.T, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonReq(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// =============================================================================
// TESTS
// =============================================================================

func TestHealthAndIndex(t *testing.T) {
	r := newRouter(&MockProcessor{}, nil, "secret")

	w := do(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<form")
}

func TestAuth(t *testing.T) {
	r := newRouter(&MockProcessor{}, nil, "secret")
	body := `{"data": ` + sampleDoc + `}`

	w := do(r, jsonReq(http.MethodPost, "/validate", body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := jsonReq(http.MethodPost, "/validate", body)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)

	req = jsonReq(http.MethodPost, "/validate", body)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, do(r, req).Code)
}

func TestCORS(t *testing.T) {
	r := newRouter(&MockProcessor{}, nil, "")

	req := httptest.NewRequest(http.MethodOptions, "/validate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := do(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = do(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProcessPDF(t *testing.T) {
	var got pipeline.Options
	proc := &MockProcessor{ProcessFunc: func(_ context.Context, _ []byte, opts pipeline.Options) (*pipeline.Result, error) {
		got = opts
		return defaultResult(opts), nil
	}}
	r := newRouter(proc, nil, "")

	body, ct := multipartBody(t, upload{"file", "fs.pdf", "application/pdf", []byte("%PDF-1.4")})
	req := httptest.NewRequest(http.MethodPost, "/process/pdf?return=json_only&include_pdf=true", body)
	req.Header.Set("Content-Type", ct)
	w := do(r, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, pipeline.ReturnJSONOnly, got.Return)
	assert.True(t, got.IncludePDF)
	assert.Equal(t, "fs.pdf", got.Filename)

	out := decode(t, w)
	assert.Equal(t, "r-1", out["report_id"])
	assert.NotContains(t, out, "html")
	assert.Equal(t, "Api Trading", out["kreditlab_json"].(map[string]interface{})["company_info"].(map[string]interface{})["name"])
	assert.Equal(t, []interface{}{"w1"}, out["warnings"])
}

func TestProcessPDF_Rejections(t *testing.T) {
	r := newRouter(&MockProcessor{}, nil, "")

	body, ct := multipartBody(t, upload{"file", "notes.txt", "text/plain", []byte("hello")})
	req := httptest.NewRequest(http.MethodPost, "/process/pdf", body)
	req.Header.Set("Content-Type", ct)
	w := do(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File must be a PDF", decode(t, w)["detail"])

	body, ct = multipartBody(t, upload{"file", "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2<<20)})
	req = httptest.NewRequest(http.MethodPost, "/process/pdf", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, do(r, req).Code)

	body, ct = multipartBody(t, upload{"file", "fs.pdf", "application/pdf", []byte("%PDF")})
	req = httptest.NewRequest(http.MethodPost, "/process/pdf?return=xml", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusBadRequest, do(r, req).Code)
}

func TestProcessPDF_PipelineFailure(t *testing.T) {
	proc := &MockProcessor{ProcessFunc: func(context.Context, []byte, pipeline.Options) (*pipeline.Result, error) {
		return nil, &pipeline.StageError{Stage: pipeline.StageValidate, Err: &validate.ValidationError{Errors: []string{"No valid periods found"}}}
	}}
	r := newRouter(proc, nil, "")

	body, ct := multipartBody(t, upload{"file", "fs.pdf", "application/x-pdf", []byte("%PDF")})
	req := httptest.NewRequest(http.MethodPost, "/process/pdf", body)
	req.Header.Set("Content-Type", ct)
	w := do(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	out := decode(t, w)
	assert.True(t, strings.HasPrefix(out["detail"].(string), "Pipeline failed: validate:"))
	assert.Equal(t, "validate", out["stage"])
	assert.Equal(t, []interface{}{"No valid periods found"}, out["validation_errors"])
}

func TestProcessPDFs(t *testing.T) {
	proc := &MockProcessor{ProcessFunc: func(_ context.Context, _ []byte, opts pipeline.Options) (*pipeline.Result, error) {
		if opts.Filename == "bad.pdf" {
			return nil, &pipeline.StageError{Stage: pipeline.StageExtract, Err: errors.New("Tensorlake parse failed: failure")}
		}
		return &pipeline.Result{ReportID: "id-" + opts.Filename, Filename: opts.Filename, Document: models.MustParseDocument(sampleDoc)}, nil
	}}
	r := newRouter(proc, nil, "")

	body, ct := multipartBody(t,
		upload{"files", "a.pdf", "application/pdf", []byte("%PDF")},
		upload{"files", "notes.txt", "text/plain", []byte("x")},
		upload{"files", "bad.pdf", "application/pdf", []byte("%PDF")},
	)
	req := httptest.NewRequest(http.MethodPost, "/process/pdfs?return=html_only", body)
	req.Header.Set("Content-Type", ct)
	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)

	results := decode(t, w)["results"].([]interface{})
	require.Len(t, results, 3)
	assert.Equal(t, "id-a.pdf", results[0].(map[string]interface{})["report_id"])
	assert.Equal(t, "File must be a PDF", results[1].(map[string]interface{})["error"])
	assert.Equal(t, "extract", results[2].(map[string]interface{})["stage"])

	body, ct = multipartBody(t)
	req = httptest.NewRequest(http.MethodPost, "/process/pdfs", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusBadRequest, do(r, req).Code)
}

func TestRenderHTML(t *testing.T) {
	r := newRouter(&MockProcessor{}, nil, "")

	w := do(r, jsonReq(http.MethodPost, "/render/html", `{"data": `+sampleDoc+`, "theme": "dark"}`))
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Contains(t, out["html"], `data-theme="dark"`)
	assert.Equal(t, "v6.0", out["schema"])

	w = do(r, jsonReq(http.MethodPost, "/render/html", `{"data": {"hello": "world"}}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []interface{}{"Unknown schema version - cannot validate structure"}, decode(t, w)["errors"])

	w = do(r, jsonReq(http.MethodPost, "/render/html", `{"theme": "dark"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderDownloads(t *testing.T) {
	r := newRouter(&MockProcessor{}, nil, "")

	w := do(r, jsonReq(http.MethodPost, "/render/xlsx", `{"data": `+sampleDoc+`}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Api_Trading_Financial_Analysis_20260115.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = do(r, jsonReq(http.MethodPost, "/render/pdf", `{"data": `+sampleDoc+`}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestValidate(t *testing.T) {
	r := newRouter(&MockProcessor{}, nil, "")

	w := do(r, jsonReq(http.MethodPost, "/validate", `{"data": `+sampleDoc+`}`))
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "v6.0", out["schema"])
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, []interface{}{}, out["errors"])

	w = do(r, jsonReq(http.MethodPost, "/validate", `{"data": [1, 2]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReport(t *testing.T) {
	st := &memStore{reports: map[string]*models.StoredReport{
		"abc": {ID: "abc", Company: "Api Trading", Document: json.RawMessage(sampleDoc), HTML: "<html></html>"},
	}}
	r := newRouter(&MockProcessor{}, st, "")

	w := do(r, httptest.NewRequest(http.MethodGet, "/reports/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "Api Trading", out["company"])
	assert.Equal(t, "<html></html>", out["html"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/reports/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	r = newRouter(&MockProcessor{}, nil, "")
	w = do(r, httptest.NewRequest(http.MethodGet, "/reports/abc", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
