package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_dispatches_total",
			Help: "Dispatch invocations by result",
		},
		[]string{"result"},
	)

	jobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_jobs_enqueued_total",
			Help: "Delivery jobs by channel and enqueue status",
		},
		[]string{"channel", "status"},
	)

	jobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_jobs_processed_total",
			Help: "Delivery jobs processed by workers, by status",
		},
		[]string{"status", "channel"},
	)

	jobLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_job_latency_seconds",
			Help:    "Time from enqueue to processing",
			Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"channel"},
	)

	messagesInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "courier_messages_in_flight",
			Help: "Messages currently being processed per channel queue",
		},
		[]string{"channel"},
	)

	idempotencyHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_idempotency_hits_total",
			Help: "Requests served from idempotency cache",
		},
	)

	rateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_rate_limit_rejections_total",
			Help: "Requests rejected by rate limiter",
		},
		[]string{"client_id"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "courier_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)
)

// Enqueue statuses.
const (
	EnqueueOK       = "ok"
	EnqueueRejected = "rejected"
	EnqueueInvalid  = "invalid"
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDispatch counts one dispatch by result ("success", "failure", "invalid").
func RecordDispatch(result string) {
	dispatchesTotal.WithLabelValues(result).Inc()
}

// RecordJobEnqueue counts one enqueue attempt.
func RecordJobEnqueue(channel, status string) {
	jobsEnqueued.WithLabelValues(channel, status).Inc()
}

// RecordJobProcessed records a worker result
func RecordJobProcessed(status, channel string) {
	jobsProcessed.WithLabelValues(status, channel).Inc()
}

// RecordJobLatency records enqueue-to-processing time
func RecordJobLatency(channel string, latency time.Duration) {
	jobLatency.WithLabelValues(channel).Observe(latency.Seconds())
}

// AddMessagesInFlight adjusts the in-flight gauge for a channel queue.
func AddMessagesInFlight(channel string, delta int) {
	messagesInFlight.WithLabelValues(channel).Add(float64(delta))
}

// RecordIdempotencyHit records a cache hit for idempotency
func RecordIdempotencyHit() {
	idempotencyHits.Inc()
}

// RecordRateLimitRejection records a rate limit rejection
func RecordRateLimitRejection(clientID string) {
	rateLimitRejections.WithLabelValues(clientID).Inc()
}

// SetBreakerState publishes a circuit breaker state.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware that records request metrics. The
// chi route pattern is used as the path label when available.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		RecordRequest(r.Method, path, wrapped.status, time.Since(start))
	})
}
