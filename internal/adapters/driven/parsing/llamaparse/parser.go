// Package llamaparse provides a cloud extraction fallback using the
// LlamaParse API. Documents are uploaded, parsed remotely, and the
// markdown result fetched once the parse job completes.
package llamaparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.TextExtractor = (*Parser)(nil)

// Default configuration values.
const (
	DefaultBaseURL      = "https://api.cloud.llamaindex.ai"
	DefaultTimeout      = 60 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultMaxWait      = 5 * time.Minute
	DefaultLanguage     = "en"
)

// Config holds configuration for the LlamaParse client.
type Config struct {
	// APIKey is the LlamaCloud API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cloud.llamaindex.ai).
	BaseURL string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// PollInterval is how often job status is checked (default: 2s).
	PollInterval time.Duration

	// MaxWait bounds how long one document may stay in parsing (default: 5m).
	MaxWait time.Duration

	// Language hints the parser about the document language (default: en).
	Language string
}

// Parser extracts text through the LlamaParse cloud API.
type Parser struct {
	client       *http.Client
	limiter      *rate.Limiter
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxWait      time.Duration
	language     string
}

// jobResponse is the upload and status response format.
type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error_message,omitempty"`
}

// resultResponse is the markdown result format.
type resultResponse struct {
	Markdown    string `json:"markdown"`
	JobMetadata struct {
		JobPages int `json:"job_pages"`
	} `json:"job_metadata"`
}

// New creates a new LlamaParse client.
func New(cfg Config) (*Parser, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llamaparse: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}

	return &Parser{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		// Stay well under the API rate limit; polling is the chatty part.
		limiter:      rate.NewLimiter(rate.Every(time.Second), 2),
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		language:     cfg.Language,
	}, nil
}

// Name returns the extractor name.
func (p *Parser) Name() string {
	return "llamaparse"
}

// Extract uploads the document, waits for the parse job to finish and
// returns the markdown result.
func (p *Parser) Extract(ctx context.Context, sub *domain.Submission) (*domain.Extraction, error) {
	if sub == nil || len(sub.Data) == 0 {
		return nil, domain.ErrInvalidInput
	}

	jobID, err := p.upload(ctx, sub)
	if err != nil {
		return nil, err
	}

	if err := p.waitForJob(ctx, jobID); err != nil {
		return nil, err
	}

	return p.fetchResult(ctx, jobID)
}

// upload sends the document and returns the parse job id.
func (p *Parser) upload(ctx context.Context, sub *domain.Submission) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(sub.Filename))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(sub.Data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.WriteField("language", p.language); err != nil {
		return "", fmt.Errorf("write language field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/api/parsing/upload",
		&buf,
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	var job jobResponse
	if err := p.do(req, &job); err != nil {
		return "", fmt.Errorf("%w: uploading to llamaparse: %v", domain.ErrExtractionFailed, err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("%w: llamaparse returned no job id", domain.ErrExtractionFailed)
	}
	return job.ID, nil
}

// waitForJob polls the job until it succeeds, fails, or times out.
func (p *Parser) waitForJob(ctx context.Context, jobID string) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.maxWait)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: parse job %s timed out after %s", domain.ErrExtractionFailed, jobID, p.maxWait)
		case <-ticker.C:
			job, err := p.jobStatus(ctx, jobID)
			if err != nil {
				return err
			}
			switch job.Status {
			case "SUCCESS":
				return nil
			case "ERROR", "CANCELED", "CANCELLED":
				return fmt.Errorf("%w: parse job %s failed: %s", domain.ErrExtractionFailed, jobID, job.Error)
			}
		}
	}
}

// jobStatus fetches the current state of a parse job.
func (p *Parser) jobStatus(ctx context.Context, jobID string) (*jobResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		p.baseURL+"/api/parsing/job/"+jobID,
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	var job jobResponse
	if err := p.do(req, &job); err != nil {
		return nil, fmt.Errorf("%w: checking parse job %s: %v", domain.ErrExtractionFailed, jobID, err)
	}
	return &job, nil
}

// fetchResult downloads the markdown result of a completed job.
func (p *Parser) fetchResult(ctx context.Context, jobID string) (*domain.Extraction, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		p.baseURL+"/api/parsing/job/"+jobID+"/result/markdown",
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	var result resultResponse
	if err := p.do(req, &result); err != nil {
		return nil, fmt.Errorf("%w: fetching parse result %s: %v", domain.ErrExtractionFailed, jobID, err)
	}

	return &domain.Extraction{
		Text:      result.Markdown,
		PageCount: result.JobMetadata.JobPages,
	}, nil
}

// do executes a request and decodes the JSON response into out.
func (p *Parser) do(req *http.Request, out any) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
