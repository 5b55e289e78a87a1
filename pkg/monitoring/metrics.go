package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Price stream metrics
	streamSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_stream_sessions_total",
			Help: "Total number of price stream sessions by outcome",
		},
		[]string{"outcome"},
	)

	streamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "price_stream_duration_seconds",
			Help:    "Duration of price stream sessions in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	upstreamAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_upstream_attempts_total",
			Help: "Total number of upstream fetch attempts",
		},
		[]string{"result"},
	)

	relayedLinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_relayed_lines_total",
			Help: "Total number of complete lines relayed downstream",
		},
	)

	malformedLinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_malformed_lines_total",
			Help: "Total number of stream lines dropped as unparseable",
		},
	)

	// Notification metrics
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"channel", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		streamSessionsTotal,
		streamDuration,
		upstreamAttemptsTotal,
		relayedLinesTotal,
		malformedLinesTotal,
		notificationsTotal,
	)
}

// RecordStreamSession records the outcome and duration of one stream session
func RecordStreamSession(outcome string, duration time.Duration) {
	streamSessionsTotal.WithLabelValues(outcome).Inc()
	streamDuration.Observe(duration.Seconds())
}

// RecordUpstreamAttempt records one upstream fetch attempt result
func RecordUpstreamAttempt(result string) {
	upstreamAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordRelayedLine counts one complete line relayed downstream
func RecordRelayedLine() {
	relayedLinesTotal.Inc()
}

// RecordMalformedLine counts one dropped unparseable line
func RecordMalformedLine() {
	malformedLinesTotal.Inc()
}

// RecordNotification records one notification delivery result
func RecordNotification(channel, status string) {
	notificationsTotal.WithLabelValues(channel, status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush preserves streaming support for wrapped handlers
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request counts and durations for every route
func Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start).Seconds()
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status), service).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, service).Observe(duration)
	})
}
