// Package pipeline runs a financial statement PDF end to end: Tensorlake
// extraction, LLM transform to model JSON, validation and rendering, then
// persistence of the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"financial_report/pkg/core/extract"
	"financial_report/pkg/core/render"
	"financial_report/pkg/core/schema"
	"financial_report/pkg/core/store"
	"financial_report/pkg/export/html"
	"financial_report/pkg/export/pdf"
	"financial_report/pkg/logger"
	"financial_report/pkg/models"
)

// Extractor turns PDF bytes into text and tables.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (*extract.Extraction, error)
}

// Transformer turns an extraction into a model document.
type Transformer interface {
	Transform(ctx context.Context, ext *extract.Extraction) (*models.Document, error)
}

// =============================================================================
// ERRORS
// =============================================================================

// Stage names the step that failed.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTransform Stage = "transform"
	StageValidate  Stage = "validate"
	StageRender    Stage = "render"
)

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the failing stage of err, or "" when err is not a StageError.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// =============================================================================
// OPTIONS AND RESULTS
// =============================================================================

// ReturnMode selects which outputs a run produces.
type ReturnMode string

const (
	ReturnBoth     ReturnMode = "both"
	ReturnHTMLOnly ReturnMode = "html_only"
	ReturnJSONOnly ReturnMode = "json_only"
)

// ParseReturnMode accepts the query values; "" means both.
func ParseReturnMode(s string) (ReturnMode, error) {
	switch ReturnMode(s) {
	case "", ReturnBoth:
		return ReturnBoth, nil
	case ReturnHTMLOnly, ReturnJSONOnly:
		return ReturnMode(s), nil
	}
	return "", fmt.Errorf("INVALID_RETURN_MODE: %q (want html_only, json_only or both)", s)
}

// Options tune a single run.
type Options struct {
	Filename   string
	Return     ReturnMode
	IncludePDF bool
	Theme      html.Theme
}

// Result is everything a run produced. Document is always set; HTML is empty
// for json_only runs.
type Result struct {
	ReportID string
	Filename string
	Schema   schema.Tag
	Document *models.Document
	Report   *render.Report
	HTML     string
	PDF      []byte
	PDFError string
	Warnings []string
	Elapsed  time.Duration
}

// Input is one document of a batch.
type Input struct {
	Filename string
	Data     []byte
}

// BatchResult pairs a batch input with its outcome.
type BatchResult struct {
	Filename string
	Result   *Result
	Err      error
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// DefaultMaxParallel bounds ProcessMany when MaxParallel is unset.
const DefaultMaxParallel = 3

// Orchestrator wires the stages together. Store and archive are optional.
type Orchestrator struct {
	extractor   Extractor
	transformer Transformer
	store       store.ReportStore
	archive     store.Archive

	MaxParallel int
	now         func() time.Time
}

// NewOrchestrator creates an orchestrator without persistence.
func NewOrchestrator(ex Extractor, tr Transformer) *Orchestrator {
	return &Orchestrator{
		extractor:   ex,
		transformer: tr,
		MaxParallel: DefaultMaxParallel,
		now:         time.Now,
	}
}

// SetStore enables persistence of rendered reports.
func (o *Orchestrator) SetStore(s store.ReportStore) { o.store = s }

// SetArchive enables archiving of the source PDF and model JSON.
func (o *Orchestrator) SetArchive(a store.Archive) { o.archive = a }

// SetClock fixes the generation time, for tests.
func (o *Orchestrator) SetClock(now func() time.Time) { o.now = now }

// Process runs the whole pipeline on one PDF.
func (o *Orchestrator) Process(ctx context.Context, data []byte, opts Options) (*Result, error) {
	start := time.Now()
	id := uuid.NewString()

	pages, err := extract.Preflight(data)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Err: err}
	}
	logger.L.Info().Str("report_id", id).Str("file", opts.Filename).Int("pages", pages).Msg("[PIPELINE] Starting")

	ext, err := o.extractor.Extract(ctx, data)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Err: err}
	}
	logger.L.Info().Str("report_id", id).Int("tables", len(ext.Tables)).Int("chars", len(ext.FullText)).Msg("[PIPELINE] Extraction complete")

	doc, err := o.transformer.Transform(ctx, ext)
	if err != nil {
		return nil, &StageError{Stage: StageTransform, Err: err}
	}

	res, err := o.finish(ctx, id, doc, opts)
	if err != nil {
		return nil, err
	}
	o.archivePut(ctx, id, "source.pdf", data)

	res.Elapsed = time.Since(start)
	logger.L.Info().Str("report_id", id).Str("schema", string(res.Schema)).Int("warnings", len(res.Warnings)).Dur("elapsed", res.Elapsed).Msg("[PIPELINE] Completed")
	return res, nil
}

// RenderJSON skips extraction and transform and renders an existing model
// document.
func (o *Orchestrator) RenderJSON(ctx context.Context, raw []byte, opts Options) (*Result, error) {
	start := time.Now()
	doc, err := models.ParseDocument(raw)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}
	res, err := o.finish(ctx, uuid.NewString(), doc, opts)
	if err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// ProcessMany runs independent documents concurrently, at most MaxParallel at
// a time. Results keep the input order.
func (o *Orchestrator) ProcessMany(ctx context.Context, inputs []Input, opts Options) []BatchResult {
	limit := o.MaxParallel
	if limit <= 0 {
		limit = DefaultMaxParallel
	}
	out := make([]BatchResult, len(inputs))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in Input) {
			defer wg.Done()
			out[i].Filename = in.Filename
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out[i].Err = ctx.Err()
				return
			}
			defer func() { <-sem }()

			o2 := opts
			o2.Filename = in.Filename
			out[i].Result, out[i].Err = o.Process(ctx, in.Data, o2)
			if out[i].Err != nil {
				logger.L.Warn().Err(out[i].Err).Str("file", in.Filename).Msg("[PIPELINE] Batch item failed")
			}
		}(i, in)
	}
	wg.Wait()
	return out
}

// finish validates and renders doc, then persists the result.
func (o *Orchestrator) finish(ctx context.Context, id string, doc *models.Document, opts Options) (*Result, error) {
	rep, err := render.BuildReportAt(doc.Node, o.now())
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}

	res := &Result{
		ReportID: id,
		Filename: opts.Filename,
		Schema:   rep.Schema,
		Document: doc,
		Report:   rep,
	}
	res.Warnings = append(res.Warnings, rep.Validation.Warnings...)
	res.Warnings = append(res.Warnings, rep.Integrity...)

	if opts.Return != ReturnJSONOnly {
		res.HTML, err = html.Render(rep, html.Options{Theme: opts.Theme})
		if err != nil {
			return nil, &StageError{Stage: StageRender, Err: err}
		}
	}
	if opts.IncludePDF {
		// a PDF failure never fails the run
		res.PDF, err = pdf.Render(rep)
		if err != nil {
			res.PDFError = err.Error()
			logger.L.Warn().Err(err).Str("report_id", id).Msg("[PIPELINE] PDF export failed")
		}
	}

	o.save(ctx, res)
	o.archivePut(ctx, id, "report.json", doc.Bytes())
	return res, nil
}

func (o *Orchestrator) save(ctx context.Context, res *Result) {
	if o.store == nil {
		return
	}
	rec := &models.StoredReport{
		ID:         res.ReportID,
		Company:    res.Report.Header.CompanyName,
		SchemaTag:  string(res.Schema),
		SourceFile: res.Filename,
		Document:   res.Document.Bytes(),
		HTML:       res.HTML,
		Warnings:   res.Warnings,
		CreatedAt:  o.now().UTC(),
	}
	if err := o.store.Save(ctx, rec); err != nil {
		logger.L.Warn().Err(err).Str("report_id", res.ReportID).Msg("[STORE] Save failed")
	}
}

func (o *Orchestrator) archivePut(ctx context.Context, id, name string, data []byte) {
	if o.archive == nil {
		return
	}
	key, err := o.archive.Put(ctx, id, name, data)
	if err != nil {
		logger.L.Warn().Err(err).Str("report_id", id).Str("name", name).Msg("[ARCHIVE] Upload failed")
		return
	}
	logger.L.Debug().Str("key", key).Msg("[ARCHIVE] Stored")
}
