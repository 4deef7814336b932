package main

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/api"
	"github.com/devblog/postsapi/components/metrics"
	syncInternal "github.com/devblog/postsapi/internal/sync"
	"github.com/devblog/postsapi/message"
	"github.com/devblog/postsapi/post"
	"github.com/devblog/postsapi/pubsub/gochannel"
)

const (
	metricsNamespace = "postsapi"

	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = time.Minute
)

// service wires the posts repository, its change events and the HTTP API.
type service struct {
	config Config
	logger postsapi.LoggerAdapter

	repository *post.Repository
	pubSub     message.PubSub
	audit      *post.AuditLog
	server     *http.Server

	closeMetrics func() error
}

func newService(config Config, logger postsapi.LoggerAdapter) (*service, error) {
	if logger == nil {
		logger = postsapi.NopLogger{}
	}

	ids, err := post.ParseIDStrategy(config.IDStrategy)
	if err != nil {
		return nil, err
	}

	var seed []post.Post
	if !config.NoSeed {
		seed = post.Seed()
	}

	s := &service{
		config:       config,
		logger:       logger,
		repository:   post.NewRepository(ids, seed...),
		closeMetrics: func() error { return nil },
	}

	s.pubSub = newPubSub(logger)
	s.audit = post.NewAuditLog(s.pubSub, logger)

	var publisher message.Publisher = s.pubSub
	var httpMetrics func(http.Handler) http.Handler

	if config.MetricsAddr != "" {
		registry, closeMetrics := metrics.CreateRegistryAndServeHTTP(config.MetricsAddr, logger)
		s.closeMetrics = closeMetrics

		builder := metrics.NewPrometheusMetricsBuilder(registry, metricsNamespace, "")

		publisher, err = builder.DecoratePublisher(s.pubSub)
		if err != nil {
			return nil, s.closeWith(errors.Wrap(err, "cannot decorate publisher with metrics"))
		}

		mw, err := builder.NewHTTPMiddleware()
		if err != nil {
			return nil, s.closeWith(errors.Wrap(err, "cannot create http metrics middleware"))
		}
		httpMetrics = mw.Middleware
	}

	router, err := api.NewRouter(api.Config{
		Posts:     post.NewEventsPublisher(s.repository, publisher, logger),
		Logger:    logger,
		Metrics:   httpMetrics,
		ReadLimit: config.ReadLimit,
	})
	if err != nil {
		return nil, s.closeWith(err)
	}

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s, nil
}

// newPubSub returns the bus post events travel on, from EventsPublisher to AuditLog.
func newPubSub(logger postsapi.LoggerAdapter) message.PubSub {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
}

func (s *service) closeWith(err error) error {
	var result error = err
	if closeErr := s.pubSub.Close(); closeErr != nil {
		result = multierror.Append(result, closeErr)
	}
	if closeErr := s.closeMetrics(); closeErr != nil {
		result = multierror.Append(result, closeErr)
	}
	return result
}

// ListenAndServe listens on the configured address, see Serve.
func (s *service) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return s.closeWith(errors.Wrapf(err, "cannot listen on %s", s.config.Addr))
	}

	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is done or the server fails, then shuts everything down.
func (s *service) Serve(ctx context.Context, ln net.Listener) error {
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()

	auditDone := &sync.WaitGroup{}
	auditDone.Add(1)
	go func() {
		defer auditDone.Done()
		if err := s.audit.Run(auditCtx); err != nil {
			s.logger.Error("Audit log failed", err, nil)
		}
	}()

	// events of the first requests must not be missed
	select {
	case <-s.audit.Running():
	case <-ctx.Done():
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Serving posts API", postsapi.LogFields{
			"addr":        ln.Addr().String(),
			"posts":       s.repository.Len(),
			"id_strategy": s.config.IDStrategy,
		})
		serveErr <- s.server.Serve(ln)
	}()

	var result error

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down", nil)
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			result = multierror.Append(result, errors.Wrap(err, "server failed"))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "cannot shut down server"))
	}

	stopAudit()
	if timedOut := syncInternal.WaitGroupTimeout(auditDone, s.config.ShutdownTimeout); timedOut {
		result = multierror.Append(result, errors.New("audit log did not stop in time"))
	}

	if err := s.closeWith(nil); err != nil {
		result = multierror.Append(result, err)
	}

	if result == nil {
		s.logger.Info("Stopped", nil)
	}

	return result
}
