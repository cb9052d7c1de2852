package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	backendReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studydesk",
			Name:      "backend_requests_total",
			Help:      "Total study backend requests by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	backendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "studydesk",
			Name:      "backend_request_duration_seconds",
			Help:      "Duration of study backend requests by endpoint",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studydesk",
			Name:      "uploads_total",
			Help:      "Uploads by backend and result (accepted, invalid, error)",
		},
		[]string{"backend", "result"},
	)

	uploadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studydesk",
			Name:      "upload_bytes_total",
			Help:      "Bytes accepted for upload by backend",
		},
		[]string{"backend"},
	)

	gatewayReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studydesk",
			Name:      "gateway_requests_total",
			Help:      "Gateway requests by route and status code",
		},
		[]string{"route", "code"},
	)

	registerOnce sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(backendReqs, backendLatency, uploads, uploadBytes, gatewayReqs)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveBackend(endpoint, result string, dur time.Duration) {
	backendReqs.WithLabelValues(endpoint, result).Inc()
	backendLatency.WithLabelValues(endpoint).Observe(dur.Seconds())
}

func IncUpload(backend, result string) { uploads.WithLabelValues(backend, result).Inc() }

func AddUploadBytes(backend string, n int64) { uploadBytes.WithLabelValues(backend).Add(float64(n)) }

func IncGateway(route string, code int) {
	gatewayReqs.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
