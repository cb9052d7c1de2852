// Package web exposes the study backend operations to a browser frontend.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/studydesk/internal/metrics"
	"github.com/local/studydesk/internal/statuscheck"
	"github.com/local/studydesk/internal/studyapi"
	"github.com/local/studydesk/internal/upload"
)

// Uploader is satisfied by *upload.Uploader.
type Uploader interface {
	Upload(ctx context.Context, f upload.File) (*studyapi.UploadResult, error)
}

// HealthChecker is satisfied by *statuscheck.Checker.
type HealthChecker interface {
	Summary(ctx context.Context) statuscheck.Summary
}

type Options struct {
	API            studyapi.API
	Uploader       Uploader
	Health         HealthChecker
	MaxUploadBytes int64
	AllowedOrigin  string
	RequestTimeout time.Duration
}

type Web struct {
	api            studyapi.API
	uploader       Uploader
	health         HealthChecker
	maxUploadBytes int64
	allowedOrigin  string
	requestTimeout time.Duration
}

func New(opts Options) *Web {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	return &Web{
		api:            opts.API,
		uploader:       opts.Uploader,
		health:         opts.Health,
		maxUploadBytes: opts.MaxUploadBytes,
		allowedOrigin:  opts.AllowedOrigin,
		requestTimeout: opts.RequestTimeout,
	}
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", w.wrap("/health", w.handleHealth))
	mux.HandleFunc("/api/upload", w.wrap("/api/upload", w.handleUpload))
	mux.HandleFunc("/api/summary", w.wrap("/api/summary", w.handleSummary))
	mux.HandleFunc("/api/flashcards", w.wrap("/api/flashcards", w.handleFlashcards))
	mux.HandleFunc("/api/query", w.wrap("/api/query", w.handleQuery))
	mux.HandleFunc("/api/rebuild_index", w.wrap("/api/rebuild_index", w.handleRebuildIndex))
	mux.Handle("/metrics", metrics.Handler())
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// wrap adds CORS headers, preflight handling, a request deadline and metrics.
func (w *Web) wrap(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(wr http.ResponseWriter, r *http.Request) {
		if w.allowedOrigin != "" {
			wr.Header().Set("Access-Control-Allow-Origin", w.allowedOrigin)
			wr.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			wr.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			wr.WriteHeader(http.StatusNoContent)
			return
		}
		if w.requestTimeout > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), w.requestTimeout)
			defer cancel()
			r = r.WithContext(ctx)
		}
		rec := &statusRecorder{ResponseWriter: wr, code: http.StatusOK}
		start := time.Now()
		next(rec, r)
		metrics.IncGateway(route, rec.code)
		log.Debug().
			Str("route", route).
			Str("method", r.Method).
			Int("status", rec.code).
			Dur("took", time.Since(start)).
			Msg("gateway request")
	}
}

func (w *Web) handleHealth(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if w.health == nil {
		writeJSON(wr, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	s := w.health.Summary(r.Context())
	code := http.StatusOK
	if !s.OK() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(wr, code, s)
}

func (w *Web) handleUpload(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(wr, r.Body, w.maxUploadBytes)
	if err := r.ParseMultipartForm(w.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorMessage(wr, http.StatusRequestEntityTooLarge, "file too large (max "+strconv.FormatInt(w.maxUploadBytes>>20, 10)+"MB)")
			return
		}
		writeErrorMessage(wr, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var f upload.File
	file, hdr, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		f = upload.FromMultipart(file, hdr)
	}
	// A missing part is handed to the uploader too, which rejects it as invalid input.
	res, err := w.uploader.Upload(r.Context(), f)
	if err != nil {
		writeError(wr, err)
		return
	}
	writeJSON(wr, http.StatusCreated, res)
}

type queryBody struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func decodeQuery(wr http.ResponseWriter, r *http.Request) (queryBody, bool) {
	var body queryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMessage(wr, http.StatusBadRequest, "invalid json")
		return body, false
	}
	if strings.TrimSpace(body.Query) == "" {
		writeErrorMessage(wr, http.StatusBadRequest, "query is required")
		return body, false
	}
	return body, true
}

func (w *Web) handleSummary(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, ok := decodeQuery(wr, r)
	if !ok {
		return
	}
	res, err := w.api.Summary(r.Context(), body.Query, body.TopK)
	if err != nil {
		writeError(wr, err)
		return
	}
	writeJSON(wr, http.StatusOK, res)
}

func (w *Web) handleFlashcards(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := w.api.Flashcards(r.Context(), r.URL.Query().Get("jobId"))
	if err != nil {
		writeError(wr, err)
		return
	}
	writeJSON(wr, http.StatusOK, res)
}

func (w *Web) handleQuery(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, ok := decodeQuery(wr, r)
	if !ok {
		return
	}
	res, err := w.api.Query(r.Context(), body.Query, body.TopK)
	if err != nil {
		writeError(wr, err)
		return
	}
	writeJSON(wr, http.StatusOK, res)
}

func (w *Web) handleRebuildIndex(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := w.api.RebuildIndex(r.Context())
	if err != nil {
		writeError(wr, err)
		return
	}
	writeJSON(wr, http.StatusOK, res)
}

// writeError maps client errors onto gateway status codes.
func writeError(wr http.ResponseWriter, err error) {
	switch {
	case studyapi.IsInvalidInput(err):
		writeErrorMessage(wr, http.StatusBadRequest, err.Error())
	case studyapi.IsRequestFailed(err):
		writeErrorMessage(wr, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorMessage(wr, http.StatusGatewayTimeout, "backend timed out")
	default:
		log.Error().Err(err).Msg("gateway request failed")
		writeErrorMessage(wr, http.StatusInternalServerError, "internal error")
	}
}

func writeErrorMessage(wr http.ResponseWriter, code int, msg string) {
	writeJSON(wr, code, map[string]string{"error": msg})
}

func writeJSON(wr http.ResponseWriter, code int, v any) {
	wr.Header().Set("Content-Type", "application/json")
	wr.WriteHeader(code)
	if err := json.NewEncoder(wr).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
