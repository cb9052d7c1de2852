package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBackend(t *testing.T) {
	before := testutil.ToFloat64(backendReqs.WithLabelValues("/summary", "ok"))
	ObserveBackend("/summary", "ok", 20*time.Millisecond)
	ObserveBackend("/summary", "ok", 30*time.Millisecond)
	assert.Equal(t, before+2, testutil.ToFloat64(backendReqs.WithLabelValues("/summary", "ok")))
}

func TestUploadCounters(t *testing.T) {
	before := testutil.ToFloat64(uploads.WithLabelValues("simulated", "invalid"))
	IncUpload("simulated", "invalid")
	assert.Equal(t, before+1, testutil.ToFloat64(uploads.WithLabelValues("simulated", "invalid")))

	bytesBefore := testutil.ToFloat64(uploadBytes.WithLabelValues("s3"))
	AddUploadBytes("s3", 1024)
	assert.Equal(t, bytesBefore+1024, testutil.ToFloat64(uploadBytes.WithLabelValues("s3")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Init()
	Init()
	ObserveBackend("/flashcards", "ok", time.Millisecond)
	IncGateway("/api/flashcards", http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "studydesk_backend_requests_total")
	assert.Contains(t, body, "studydesk_gateway_requests_total")
}
