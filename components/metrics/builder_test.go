package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblog/postsapi/components/metrics"
	"github.com/devblog/postsapi/message"
)

type failingPublisher struct {
	err error
}

func (p failingPublisher) Publish(topic string, messages ...*message.Message) error {
	return p.err
}

func (p failingPublisher) Close() error {
	return nil
}

func TestHTTPMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	builder := metrics.NewPrometheusMetricsBuilder(registry, "postsapi", "test")

	mw, err := builder.NewHTTPMiddleware()
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(mw.Middleware)
	router.Get("/api/v1/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/v1/posts/1", "/api/v1/posts/2", "/api/v1/posts/404", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	expected := `
# HELP postsapi_test_http_requests_in_flight The number of HTTP requests being served
# TYPE postsapi_test_http_requests_in_flight gauge
postsapi_test_http_requests_in_flight 0
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "postsapi_test_http_requests_in_flight"))

	// one series per (method, route pattern, status)
	count, err := testutil.GatherAndCount(registry, "postsapi_test_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNewHTTPMiddleware_twice_reuses_collectors(t *testing.T) {
	builder := metrics.NewPrometheusMetricsBuilder(prometheus.NewRegistry(), "postsapi", "")

	_, err := builder.NewHTTPMiddleware()
	require.NoError(t, err)

	_, err = builder.NewHTTPMiddleware()
	assert.NoError(t, err)
}

func TestDecoratePublisher(t *testing.T) {
	registry := prometheus.NewRegistry()
	builder := metrics.NewPrometheusMetricsBuilder(registry, "postsapi", "")

	ok, err := builder.DecoratePublisher(failingPublisher{})
	require.NoError(t, err)
	failing, err := builder.DecoratePublisher(failingPublisher{err: errors.New("down")})
	require.NoError(t, err)

	assert.NoError(t, ok.Publish("post.created", message.NewMessage("1", nil)))
	assert.NoError(t, ok.Publish("post.deleted", message.NewMessage("2", nil)))
	assert.Error(t, failing.Publish("post.created", message.NewMessage("3", nil)))

	count, err := testutil.GatherAndCount(registry, "postsapi_publish_time_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, ok.Close())
}
