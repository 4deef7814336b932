// Package api serves the posts collection over HTTP as JSON.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/post"
)

// DefaultReadLimit is the maximum size of a request body, in bytes.
const DefaultReadLimit int64 = 1 << 20

type Config struct {
	// Posts is the collection served by the router.
	Posts post.Store

	// Logger defaults to postsapi.NopLogger.
	Logger postsapi.LoggerAdapter

	// Metrics is an optional middleware recording request metrics,
	// see metrics.HTTPPrometheusMetricsMiddleware.
	Metrics func(http.Handler) http.Handler

	// ReadLimit caps request bodies. Defaults to DefaultReadLimit.
	ReadLimit int64
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = postsapi.NopLogger{}
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = DefaultReadLimit
	}
}

func (c Config) Validate() error {
	if c.Posts == nil {
		return errors.New("missing Posts")
	}
	return nil
}

// NewRouter builds the HTTP handler of the posts API.
func NewRouter(config Config) (*chi.Mux, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	h := handlers{
		posts:     config.Posts,
		logger:    config.Logger,
		readLimit: config.ReadLimit,
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	if config.Metrics != nil {
		r.Use(config.Metrics)
	}
	r.Use(RequestLogger(config.Logger))

	r.NotFound(h.handle(func(w http.ResponseWriter, r *http.Request) error {
		return errRouteNotFound
	}))
	r.MethodNotAllowed(h.handle(func(w http.ResponseWriter, r *http.Request) error {
		return ErrMethodNotAllowed
	}))

	r.Get("/healthz", h.handle(h.Health))

	r.Route("/api/v1/posts", func(r chi.Router) {
		r.Get("/search", h.handle(h.Search))
		r.Get("/", h.handle(h.List))
		r.Post("/", h.handle(h.Create))
		r.Get("/{id}", h.handle(h.Get))
		r.Put("/{id}", h.handle(h.Update))
		r.Delete("/{id}", h.handle(h.Delete))
	})

	return r, nil
}
