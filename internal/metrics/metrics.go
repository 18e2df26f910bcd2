package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exotransit_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exotransit_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	lightCurvesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exotransit_lightcurves_total",
			Help: "Light curves computed, by trajectory policy and outcome.",
		},
		[]string{"policy", "outcome"},
	)

	lightCurveSamples = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exotransit_lightcurve_samples",
			Help:    "Sample count of computed light curves.",
			Buckets: []float64{10, 50, 100, 200, 500, 1000, 2500, 5000, 10000},
		},
	)

	streamConnectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exotransit_stream_connections_total",
			Help: "Total orbit stream connections accepted.",
		},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exotransit_streams_active",
			Help: "Orbit streams currently open.",
		},
	)

	streamMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exotransit_stream_messages_total",
			Help: "SSE messages sent, by message type.",
		},
		[]string{"type"},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exotransit_stream_bytes_total",
			Help: "SSE payload bytes sent.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exotransit_stream_errors_total",
			Help: "Orbit stream errors, by reason.",
		},
		[]string{"reason"},
	)

	marketCapFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exotransit_marketcap_fetches_total",
			Help: "Per-ticker quote fetches, by outcome.",
		},
		[]string{"outcome"},
	)

	marketCapRefreshSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exotransit_marketcap_refresh_duration_seconds",
			Help:    "Duration of a full market-cap refresh.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	marketCapSnapshotAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exotransit_marketcap_snapshot_age_seconds",
			Help: "Age of the current market-cap snapshot.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		lightCurvesTotal,
		lightCurveSamples,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
		marketCapFetchesTotal,
		marketCapRefreshSeconds,
		marketCapSnapshotAge,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordLightCurve counts one light-curve computation.
func RecordLightCurve(policy string, samples int, err error) {
	if err != nil {
		lightCurvesTotal.WithLabelValues(policy, "invalid").Inc()
		return
	}
	lightCurvesTotal.WithLabelValues(policy, "ok").Inc()
	lightCurveSamples.Observe(float64(samples))
}

func IncStreamConnections()            { streamConnectionsTotal.Inc() }
func IncStreamsActive()                { streamsActive.Inc() }
func DecStreamsActive()                { streamsActive.Dec() }
func IncStreamMessages(msgType string) { streamMessagesTotal.WithLabelValues(msgType).Inc() }
func AddStreamBytes(n int)             { streamBytesTotal.Add(float64(n)) }
func IncStreamErrors(reason string)    { streamErrorsTotal.WithLabelValues(reason).Inc() }

// RecordMarketCapFetch counts one ticker fetch; outcome is "ok" or "error".
func RecordMarketCapFetch(outcome string) {
	marketCapFetchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveMarketCapRefresh records the duration of a full refresh.
func ObserveMarketCapRefresh(d time.Duration) {
	marketCapRefreshSeconds.Observe(d.Seconds())
}

// SetMarketCapSnapshotAge sets the snapshot age gauge.
func SetMarketCapSnapshotAge(seconds float64) {
	marketCapSnapshotAge.Set(seconds)
}

var knownRoutes = map[string]bool{
	"/healthz":                  true,
	"/readyz":                   true,
	"/metrics":                  true,
	"/api/v1/lightcurve":        true,
	"/api/v1/occlusion":         true,
	"/api/v1/star":              true,
	"/api/v1/ephemeris":         true,
	"/api/v1/sites":             true,
	"/api/v1/marketcap":         true,
	"/api/v1/marketcap/refresh": true,
	"/api/v1/stream/orbit":      true,
}

// normalizeRoute maps a request path to a bounded label set so that
// parameterised and unknown paths cannot blow up label cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/sites/"); ok && rest != "" {
		if strings.Contains(strings.TrimSuffix(rest, "/"), "/") {
			return "/api/v1/sites/{collection}/{site}"
		}
		return "/api/v1/sites/{collection}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController so
// streaming handlers can still flush and set deadlines.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
