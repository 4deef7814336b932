package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// defaultHTTPBuckets are one order of magnitude smaller than default buckets (5ms~10s),
// because the posts are served from memory (µs~ms range).
var defaultHTTPBuckets = []float64{
	0.0005,
	0.001,
	0.0025,
	0.005,
	0.01,
	0.025,
	0.05,
	0.1,
	0.25,
	0.5,
	1,
}

// HTTPPrometheusMetricsMiddleware is a chi middleware that captures Prometheus metrics of HTTP requests.
type HTTPPrometheusMetricsMiddleware struct {
	requestsTotal          *prometheus.CounterVec
	requestDurationSeconds *prometheus.HistogramVec
	requestsInFlight       prometheus.Gauge
}

// Middleware returns the middleware ready to be used with chi.Router.Use.
//
// Requests are labelled with the chi route pattern, not the raw path,
// so /api/v1/posts/1 and /api/v1/posts/2 share one series.
func (m HTTPPrometheusMetricsMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		next.ServeHTTP(ww, r)

		route := labelValueNoRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		labels := prometheus.Labels{
			labelKeyMethod: r.Method,
			labelKeyRoute:  route,
			labelKeyStatus: statusLabel(ww.Status()),
		}
		m.requestsTotal.With(labels).Inc()
		m.requestDurationSeconds.With(labels).Observe(time.Since(start).Seconds())
	})
}

// NewHTTPMiddleware returns new middleware.
func (b PrometheusMetricsBuilder) NewHTTPMiddleware() (HTTPPrometheusMetricsMiddleware, error) {
	var err error
	m := HTTPPrometheusMetricsMiddleware{}

	buckets := b.HTTPBuckets
	if buckets == nil {
		buckets = defaultHTTPBuckets
	}

	m.requestsTotal, err = b.registerCounterVec(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "http_requests_total",
			Help:      "The total number of served HTTP requests",
		},
		httpLabelKeys,
	))
	if err != nil {
		return HTTPPrometheusMetricsMiddleware{}, errors.Wrap(err, "could not register http requests total metric")
	}

	m.requestDurationSeconds, err = b.registerHistogramVec(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "The time elapsed while serving an HTTP request in seconds",
			Buckets:   buckets,
		},
		httpLabelKeys,
	))
	if err != nil {
		return HTTPPrometheusMetricsMiddleware{}, errors.Wrap(err, "could not register http request duration metric")
	}

	inFlight, err := b.register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: b.Namespace,
		Subsystem: b.Subsystem,
		Name:      "http_requests_in_flight",
		Help:      "The number of HTTP requests being served",
	}))
	if err != nil {
		return HTTPPrometheusMetricsMiddleware{}, errors.Wrap(err, "could not register http requests in flight metric")
	}
	m.requestsInFlight = inFlight.(prometheus.Gauge)

	return m, nil
}
