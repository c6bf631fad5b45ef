package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"financial_report/pkg/logger"
)

const (
	DefaultBaseURL      = "https://api.tensorlake.ai"
	DefaultPollInterval = 2 * time.Second

	uploadPath = "/documents/v2/files"
	parsePath  = "/documents/v2/parse"
)

// Parse statuses reported by the service.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSuccessful = "successful"
	StatusFailure    = "failure"
)

// =============================================================================
// TENSORLAKE CLIENT
// =============================================================================

// Client talks to the Tensorlake document AI v2 API.
type Client struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	httpClient   *http.Client
}

// NewClient returns a client with a 60 second request timeout.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		APIKey:       apiKey,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		PollInterval: DefaultPollInterval,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

type uploadResponse struct {
	FileID string `json:"file_id"`
}

type parseRequest struct {
	FileID            string            `json:"file_id"`
	ParsingOptions    parsingOptions    `json:"parsing_options"`
	EnrichmentOptions enrichmentOptions `json:"enrichment_options"`
	Labels            map[string]string `json:"labels,omitempty"`
}

type parsingOptions struct {
	ChunkingStrategy   string `json:"chunking_strategy"`
	TableOutputMode    string `json:"table_output_mode"`
	TableParsingFormat string `json:"table_parsing_format"`
	OCRModel           string `json:"ocr_model"`
	SkewDetection      bool   `json:"skew_detection"`
}

type enrichmentOptions struct {
	FigureSummarization bool `json:"figure_summarization"`
	TableSummarization  bool `json:"table_summarization"`
}

type parseResult struct {
	ParseID string  `json:"parse_id"`
	Status  string  `json:"status"`
	Error   string  `json:"error,omitempty"`
	Chunks  []chunk `json:"chunks"`
}

type chunk struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
}

// Extract runs the full upload, parse and poll cycle for one PDF.
func (c *Client) Extract(ctx context.Context, pdf []byte) (*Extraction, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("TENSORLAKE_API_KEY is required")
	}
	pages, err := Preflight(pdf)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	fileID, err := c.upload(ctx, pdf)
	if err != nil {
		return nil, err
	}
	logger.L.Info().Str("file_id", fileID).Int("pages", pages).Msg("[TENSORLAKE] uploaded")

	parseID, err := c.startParse(ctx, fileID)
	if err != nil {
		return nil, err
	}

	res, err := c.wait(ctx, parseID)
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(res.Chunks))
	for i, ch := range res.Chunks {
		contents[i] = ch.Content
	}
	ext, err := ParseChunks(contents)
	if err != nil {
		return nil, err
	}
	ext.PageCount = pages
	logger.L.Info().Str("parse_id", parseID).Int("chunks", len(contents)).Int("tables", len(ext.Tables)).
		Dur("elapsed", time.Since(start)).Msg("[TENSORLAKE] parse complete")
	return ext, nil
}

func (c *Client) upload(ctx context.Context, pdf []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file_bytes"; filename="file.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("TENSORLAKE_UPLOAD_ERROR: %v", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return "", fmt.Errorf("TENSORLAKE_UPLOAD_ERROR: %v", err)
	}
	if err := w.WriteField("labels", `{"source":"integrated_app"}`); err != nil {
		return "", fmt.Errorf("TENSORLAKE_UPLOAD_ERROR: %v", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("TENSORLAKE_UPLOAD_ERROR: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL+uploadPath, &body)
	if err != nil {
		return "", fmt.Errorf("TENSORLAKE_UPLOAD_ERROR: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	respBody, status, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("TENSORLAKE_UPLOAD_ERROR: %v", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("Tensorlake upload failed %d: %s", status, string(respBody))
	}

	var up uploadResponse
	if err := json.Unmarshal(respBody, &up); err != nil || up.FileID == "" {
		return "", fmt.Errorf("Tensorlake upload response missing file_id")
	}
	return up.FileID, nil
}

func (c *Client) startParse(ctx context.Context, fileID string) (string, error) {
	payload, err := json.Marshal(parseRequest{
		FileID: fileID,
		ParsingOptions: parsingOptions{
			ChunkingStrategy:   "page",
			TableOutputMode:    "markdown",
			TableParsingFormat: "tsr",
			OCRModel:           "model03",
			SkewDetection:      true,
		},
		Labels: map[string]string{"source": "integrated_app"},
	})
	if err != nil {
		return "", fmt.Errorf("TENSORLAKE_PARSE_ERROR: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+parsePath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("TENSORLAKE_PARSE_ERROR: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, status, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("TENSORLAKE_PARSE_ERROR: %v", err)
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return "", fmt.Errorf("Tensorlake parse failed %d: %s", status, string(respBody))
	}

	var res parseResult
	if err := json.Unmarshal(respBody, &res); err != nil || res.ParseID == "" {
		return "", fmt.Errorf("Tensorlake parse response missing parse_id")
	}
	return res.ParseID, nil
}

// wait polls the parse job until it leaves the pending states or ctx ends.
func (c *Client) wait(ctx context.Context, parseID string) (*parseResult, error) {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+parsePath+"/"+parseID, nil)
		if err != nil {
			return nil, fmt.Errorf("TENSORLAKE_POLL_ERROR: %v", err)
		}
		respBody, status, err := c.do(req)
		if err != nil {
			return nil, fmt.Errorf("TENSORLAKE_POLL_ERROR: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("Tensorlake parse status %d: %s", status, string(respBody))
		}

		var res parseResult
		if err := json.Unmarshal(respBody, &res); err != nil {
			return nil, fmt.Errorf("TENSORLAKE_POLL_ERROR: %v", err)
		}

		switch res.Status {
		case StatusSuccessful:
			return &res, nil
		case StatusPending, StatusProcessing, "":
			logger.L.Debug().Str("parse_id", parseID).Str("status", res.Status).Msg("[TENSORLAKE] waiting")
		default:
			return nil, fmt.Errorf("Tensorlake parse failed: %s", res.Status)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("TENSORLAKE_TIMEOUT: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// Preflight checks that data is a readable PDF and returns its page count.
func Preflight(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("PDF_INVALID: empty file")
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return 0, fmt.Errorf("PDF_INVALID: missing %%PDF header")
	}
	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("PDF_INVALID: %v", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("PDF_INVALID: %v", err)
	}
	return ctx.PageCount, nil
}
