package studyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/studydesk/internal/metrics"
)

const (
	DefaultBaseURL     = "http://127.0.0.1:8000"
	DefaultSummaryTopK = 3
	DefaultQueryTopK   = 5
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	SummaryTopK int
	QueryTopK   int
	HTTPClient  *http.Client
}

// Client talks to the study backend over HTTP.
type Client struct {
	baseURL     string
	http        *http.Client
	summaryTopK int
	queryTopK   int
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		baseURL:     base,
		http:        hc,
		summaryTopK: opts.SummaryTopK,
		queryTopK:   opts.QueryTopK,
	}
	if c.summaryTopK <= 0 {
		c.summaryTopK = DefaultSummaryTopK
	}
	if c.queryTopK <= 0 {
		c.queryTopK = DefaultQueryTopK
	}
	return c
}

// BaseURL returns the backend address the client was configured with.
func (c *Client) BaseURL() string { return c.baseURL }

// Summary asks the backend for summary points and Q&A pairs. topK <= 0 uses
// the configured default.
func (c *Client) Summary(ctx context.Context, query string, topK int) (*SummaryResult, error) {
	if topK <= 0 {
		topK = c.summaryTopK
	}
	var out SummaryResult
	if err := c.do(ctx, "summary", http.MethodPost, "/summary", queryRequest{Query: query, TopK: topK}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Flashcards returns the flashcards of the last ingestion session. The backend
// has no per-job lookup, so jobID is not sent.
func (c *Client) Flashcards(ctx context.Context, jobID string) (*FlashcardResult, error) {
	log.Debug().Str("job_id", jobID).Msg("fetching flashcards")
	var out FlashcardResult
	if err := c.do(ctx, "flashcards", http.MethodGet, "/flashcards", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query runs a RAG query and returns the answer with its sources and agent trace.
func (c *Client) Query(ctx context.Context, query string, topK int) (*QueryResult, error) {
	if topK <= 0 {
		topK = c.queryTopK
	}
	var out QueryResult
	if err := c.do(ctx, "query", http.MethodPost, "/query", queryRequest{Query: query, TopK: topK}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RebuildIndex(ctx context.Context) (*MessageResult, error) {
	var out MessageResult
	if err := c.do(ctx, "index rebuild", http.MethodPost, "/rebuild_index", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Ping(ctx context.Context) (*MessageResult, error) {
	var out MessageResult
	if err := c.do(ctx, "status", http.MethodGet, "/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one request/response round trip. A nil in sends no body.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveBackend(path, "error", time.Since(start))
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ObserveBackend(path, "http_"+strconv.Itoa(resp.StatusCode), time.Since(start))
		_, _ = io.Copy(io.Discard, resp.Body)
		log.Warn().
			Str("request_id", reqID).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("backend returned non-success status")
		return &RequestFailedError{Op: op, StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.ObserveBackend(path, "decode_error", time.Since(start))
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	metrics.ObserveBackend(path, "ok", time.Since(start))
	log.Debug().
		Str("request_id", reqID).
		Str("path", path).
		Dur("took", time.Since(start)).
		Msg("backend request done")
	return nil
}

// statusText returns the reason phrase of resp ("Not Found" for "404 Not Found").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
