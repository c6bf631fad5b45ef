// Package report serves the processing pipeline and the renderers over HTTP.
package report

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"financial_report/pkg/core/pipeline"
	"financial_report/pkg/core/render"
	"financial_report/pkg/core/schema"
	"financial_report/pkg/core/store"
	"financial_report/pkg/core/validate"
	"financial_report/pkg/export"
	"financial_report/pkg/export/excel"
	"financial_report/pkg/export/html"
	"financial_report/pkg/export/pdf"
	"financial_report/pkg/logger"
	"financial_report/pkg/models"
)

// Processor is the slice of the pipeline the handlers drive.
type Processor interface {
	Process(ctx context.Context, data []byte, opts pipeline.Options) (*pipeline.Result, error)
	ProcessMany(ctx context.Context, inputs []pipeline.Input, opts pipeline.Options) []pipeline.BatchResult
}

//go:embed index.html
var indexPage []byte

var pdfContentTypes = map[string]bool{
	"application/pdf":          true,
	"application/x-pdf":        true,
	"application/octet-stream": true,
}

// Handler holds dependencies for the report endpoints. Reports may be nil.
type Handler struct {
	proc      Processor
	reports   store.ReportStore
	maxUpload int64
	now       func() time.Time
}

// NewHandler creates a new report handler.
func NewHandler(proc Processor, reports store.ReportStore, maxUploadBytes int64) *Handler {
	return &Handler{proc: proc, reports: reports, maxUpload: maxUploadBytes, now: time.Now}
}

// RegisterPublic mounts the routes that never need a token.
func (h *Handler) RegisterPublic(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/", h.Index)
}

// RegisterRoutes mounts the authenticated routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/process/pdf", h.ProcessPDF)
	r.POST("/process/pdfs", h.ProcessPDFs)
	r.POST("/render/html", h.RenderHTML)
	r.POST("/render/xlsx", h.RenderXLSX)
	r.POST("/render/pdf", h.RenderPDF)
	r.POST("/validate", h.Validate)
	r.GET("/reports/:id", h.GetReport)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, export.MimeHTML, indexPage)
}

// =============================================================================
// PROCESSING
// =============================================================================

func (h *Handler) processOptions(c *gin.Context) (pipeline.Options, error) {
	mode, err := pipeline.ParseReturnMode(c.Query("return"))
	if err != nil {
		return pipeline.Options{}, err
	}
	includePDF := false
	if v := c.Query("include_pdf"); v != "" {
		if includePDF, err = strconv.ParseBool(v); err != nil {
			return pipeline.Options{}, fmt.Errorf("include_pdf must be a boolean")
		}
	}
	theme := html.Light
	if c.Query("theme") == string(html.Dark) {
		theme = html.Dark
	}
	return pipeline.Options{Return: mode, IncludePDF: includePDF, Theme: theme}, nil
}

// uploadError carries the status a rejected upload maps to.
type uploadError struct {
	status int
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

func (h *Handler) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
	if !pdfContentTypes[ct] {
		return nil, &uploadError{http.StatusBadRequest, "File must be a PDF"}
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return nil, &uploadError{http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d MB limit", h.maxUpload>>20)}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, &uploadError{http.StatusBadRequest, "Could not read upload"}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &uploadError{http.StatusBadRequest, "Could not read upload"}
	}
	return data, nil
}

func resultBody(res *pipeline.Result, mode pipeline.ReturnMode) gin.H {
	body := gin.H{
		"report_id": res.ReportID,
		"filename":  res.Filename,
		"schema":    res.Schema,
		"warnings":  nonNil(res.Warnings),
	}
	if mode != pipeline.ReturnHTMLOnly {
		body["kreditlab_json"] = json.RawMessage(res.Document.Bytes())
	}
	if mode != pipeline.ReturnJSONOnly {
		body["html"] = res.HTML
	}
	if res.PDF != nil {
		body["pdf_base64"] = base64.StdEncoding.EncodeToString(res.PDF)
	}
	if res.PDFError != "" {
		body["pdf_error"] = res.PDFError
	}
	return body
}

// ProcessPDF handles POST /process/pdf
func (h *Handler) ProcessPDF(c *gin.Context) {
	opts, err := h.processOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No file uploaded"})
		return
	}
	data, err := h.readUpload(fh)
	if err != nil {
		var ue *uploadError
		errors.As(err, &ue)
		c.JSON(ue.status, gin.H{"detail": ue.msg})
		return
	}
	opts.Filename = fh.Filename

	res, err := h.proc.Process(c.Request.Context(), data, opts)
	if err != nil {
		logger.L.Error().Err(err).Str("file", fh.Filename).Msg("[API] Pipeline failed")
		body := gin.H{"detail": "Pipeline failed: " + err.Error(), "stage": pipeline.StageOf(err)}
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			body["validation_errors"] = verr.Errors
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(http.StatusOK, resultBody(res, opts.Return))
}

// ProcessPDFs handles POST /process/pdfs
func (h *Handler) ProcessPDFs(c *gin.Context) {
	opts, err := h.processOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No files uploaded"})
		return
	}

	files := form.File["files"]
	results := make([]gin.H, len(files))
	var inputs []pipeline.Input
	var slots []int
	for i, fh := range files {
		data, err := h.readUpload(fh)
		if err != nil {
			results[i] = gin.H{"filename": fh.Filename, "error": err.Error()}
			continue
		}
		inputs = append(inputs, pipeline.Input{Filename: fh.Filename, Data: data})
		slots = append(slots, i)
	}

	for j, br := range h.proc.ProcessMany(c.Request.Context(), inputs, opts) {
		if br.Err != nil {
			results[slots[j]] = gin.H{"filename": br.Filename, "error": "Pipeline failed: " + br.Err.Error(), "stage": pipeline.StageOf(br.Err)}
			continue
		}
		results[slots[j]] = resultBody(br.Result, opts.Return)
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// =============================================================================
// RENDERING
// =============================================================================

type renderRequest struct {
	Data  json.RawMessage `json:"data" binding:"required"`
	Theme string          `json:"theme" binding:"omitempty,oneof=light dark"`
}

// buildReport parses the request body and renders the report model. It
// writes the 400 response itself and returns nil on failure.
func (h *Handler) buildReport(c *gin.Context) (*render.Report, *renderRequest) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request: " + err.Error()})
		return nil, nil
	}
	doc, err := models.ParseDocument(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return nil, nil
	}
	rep, err := render.BuildReportAt(doc.Node, h.now())
	if err != nil {
		body := gin.H{"detail": "Validation failed"}
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			body["schema"] = verr.Schema
			body["errors"] = verr.Errors
		}
		c.JSON(http.StatusBadRequest, body)
		return nil, nil
	}
	return rep, &req
}

// RenderHTML handles POST /render/html
func (h *Handler) RenderHTML(c *gin.Context) {
	rep, req := h.buildReport(c)
	if rep == nil {
		return
	}
	out, err := html.Render(rep, html.Options{Theme: html.Theme(req.Theme)})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": out, "schema": rep.Schema, "warnings": nonNil(rep.Validation.Warnings)})
}

// RenderXLSX handles POST /render/xlsx
func (h *Handler) RenderXLSX(c *gin.Context) {
	rep, _ := h.buildReport(c)
	if rep == nil {
		return
	}
	out, err := excel.Render(rep)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	h.download(c, rep, "xlsx", export.MimeXLSX, out)
}

// RenderPDF handles POST /render/pdf
func (h *Handler) RenderPDF(c *gin.Context) {
	rep, _ := h.buildReport(c)
	if rep == nil {
		return
	}
	out, err := pdf.Render(rep)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	h.download(c, rep, "pdf", export.MimePDF, out)
}

func (h *Handler) download(c *gin.Context, rep *render.Report, ext, mime string, data []byte) {
	name := export.ReportFilename(rep, h.now(), ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, mime, data)
}

// Validate handles POST /validate
func (h *Handler) Validate(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request: " + err.Error()})
		return
	}
	doc, err := models.ParseDocument(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	tag := schema.Classify(doc.Node)
	res := validate.Validate(doc.Node, tag)
	c.JSON(http.StatusOK, gin.H{
		"schema":         tag,
		"ok":             res.OK,
		"errors":         nonNil(res.Errors),
		"warnings":       nonNil(res.Warnings),
		"integrity":      validate.CheckIntegrity(doc.Node, tag),
		"balance_checks": validate.Reconcile(doc.Node, tag, validate.DefaultTolerance),
	})
}

// GetReport handles GET /reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Report storage is not configured"})
		return
	}
	rec, err := h.reports.Load(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
