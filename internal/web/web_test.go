package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/studydesk/internal/statuscheck"
	"github.com/local/studydesk/internal/studyapi"
	"github.com/local/studydesk/internal/upload"
)

type fakeAPI struct {
	err       error
	lastQuery string
	lastTopK  int
	lastJobID string
}

func (f *fakeAPI) Summary(_ context.Context, query string, topK int) (*studyapi.SummaryResult, error) {
	f.lastQuery, f.lastTopK = query, topK
	if f.err != nil {
		return nil, f.err
	}
	return &studyapi.SummaryResult{SummaryPoints: []string{"a"}, QA: []studyapi.QAPair{}}, nil
}

func (f *fakeAPI) Flashcards(_ context.Context, jobID string) (*studyapi.FlashcardResult, error) {
	f.lastJobID = jobID
	if f.err != nil {
		return nil, f.err
	}
	return &studyapi.FlashcardResult{Flashcards: []studyapi.QAPair{{Question: "x", Answer: "y"}}}, nil
}

func (f *fakeAPI) Query(_ context.Context, query string, topK int) (*studyapi.QueryResult, error) {
	f.lastQuery, f.lastTopK = query, topK
	if f.err != nil {
		return nil, f.err
	}
	return &studyapi.QueryResult{Answer: "42"}, nil
}

func (f *fakeAPI) RebuildIndex(context.Context) (*studyapi.MessageResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &studyapi.MessageResult{Message: "Index rebuild complete!"}, nil
}

func (f *fakeAPI) Ping(context.Context) (*studyapi.MessageResult, error) {
	return &studyapi.MessageResult{Message: "ok"}, f.err
}

type fakeHealth struct{ s statuscheck.Summary }

func (f fakeHealth) Summary(context.Context) statuscheck.Summary { return f.s }

func newMux(t *testing.T, api studyapi.API, opts Options) *http.ServeMux {
	t.Helper()
	opts.API = api
	if opts.Uploader == nil {
		opts.Uploader = upload.NewUploader(upload.NewSimulatedBackend(0))
	}
	mux := http.NewServeMux()
	New(opts).RegisterRoutes(mux)
	return mux
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload_Accepted(t *testing.T) {
	mux := newMux(t, &fakeAPI{}, Options{})
	body, ct := multipartBody(t, "file", "notes.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var res studyapi.UploadResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, studyapi.UploadMessage, res.Message)
	assert.Regexp(t, `^job_[0-9a-z]{8}$`, res.JobID)
}

func TestUpload_InvalidInput(t *testing.T) {
	mux := newMux(t, &fakeAPI{}, Options{})

	for name, parts := range map[string][2]string{
		"empty file":   {"file", "empty.pdf"},
		"missing file": {"", ""},
	} {
		t.Run(name, func(t *testing.T) {
			body, ct := multipartBody(t, parts[0], parts[1], nil)
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotContains(t, w.Body.String(), "job_")
		})
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	mux := newMux(t, &fakeAPI{}, Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	mux := newMux(t, &fakeAPI{}, Options{MaxUploadBytes: 1024})
	body, ct := multipartBody(t, "file", "big.pdf", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}, w.Code)
}

func TestSummary_ForwardsQuery(t *testing.T) {
	api := &fakeAPI{}
	mux := newMux(t, api, Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/summary", strings.NewReader(`{"query":"photosynthesis","top_k":4}`))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summaryPoints":["a"],"qa":[]}`, w.Body.String())
	assert.Equal(t, "photosynthesis", api.lastQuery)
	assert.Equal(t, 4, api.lastTopK)
}

func TestSummary_BadRequests(t *testing.T) {
	mux := newMux(t, &fakeAPI{}, Options{})
	for _, body := range []string{`not json`, `{"query":"   "}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/summary", strings.NewReader(body))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"request failed", &studyapi.RequestFailedError{Op: "summary", StatusCode: 500, Status: "Internal Server Error"}, http.StatusBadGateway},
		{"invalid input", studyapi.ErrInvalidInput, http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newMux(t, &fakeAPI{err: tc.err}, Options{})
			req := httptest.NewRequest(http.MethodPost, "/api/summary", strings.NewReader(`{"query":"x"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestFlashcards_PassesJobID(t *testing.T) {
	api := &fakeAPI{}
	mux := newMux(t, api, Options{})
	req := httptest.NewRequest(http.MethodGet, "/api/flashcards?jobId=job_abcd1234", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"flashcards":[{"q":"x","a":"y"}]}`, w.Body.String())
	assert.Equal(t, "job_abcd1234", api.lastJobID)
}

func TestQueryAndRebuild(t *testing.T) {
	mux := newMux(t, &fakeAPI{}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"cells"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"answer":"42"`)

	req = httptest.NewRequest(http.MethodPost, "/api/rebuild_index", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Index rebuild complete!")
}

func TestCORSPreflight(t *testing.T) {
	mux := newMux(t, &fakeAPI{}, Options{AllowedOrigin: "http://localhost:3000"})
	req := httptest.NewRequest(http.MethodOptions, "/api/summary", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	healthy := statuscheck.Summary{
		Backend: statuscheck.Status{OK: true, Message: "Available"},
		Upload:  statuscheck.Status{OK: true, Message: "Simulated"},
	}
	mux := newMux(t, &fakeAPI{}, Options{Health: fakeHealth{s: healthy}})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	down := healthy
	down.Backend = statuscheck.Status{OK: false, Message: "connection refused"}
	mux = newMux(t, &fakeAPI{}, Options{Health: fakeHealth{s: down}})
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsRoute(t *testing.T) {
	mux := newMux(t, &fakeAPI{}, Options{})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
