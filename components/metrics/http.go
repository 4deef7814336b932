package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devblog/postsapi"
)

// NewHandler returns a router serving registry at /metrics.
func NewHandler(registry *prometheus.Registry) http.Handler {
	router := chi.NewRouter()

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	router.Get("/metrics", handler.ServeHTTP)

	return router
}

// CreateRegistryAndServeHTTP establishes an HTTP server that exposes the /metrics endpoint for Prometheus at the given address.
// It returns a new prometheus registry (to register the metrics on) and a canceling function that ends the server.
func CreateRegistryAndServeHTTP(addr string, logger postsapi.LoggerAdapter) (registry *prometheus.Registry, cancel func() error) {
	registry = prometheus.NewRegistry()
	return registry, ServeHTTP(addr, registry, logger)
}

// ServeHTTP establishes an HTTP server that exposes the /metrics endpoint for Prometheus at the given address.
// It takes an existing Prometheus registry and returns a canceling function that ends the server.
//
// Serving errors are logged, the metrics server going down doesn't stop the service.
func ServeHTTP(addr string, registry *prometheus.Registry, logger postsapi.LoggerAdapter) (cancel func() error) {
	if logger == nil {
		logger = postsapi.NopLogger{}
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", postsapi.LogFields{"addr": addr})

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", err, postsapi.LogFields{"addr": addr})
		}
	}()

	return server.Close
}
