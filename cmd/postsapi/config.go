package main

import (
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/api"
	"github.com/devblog/postsapi/post"
)

const (
	logFormatStd  = "std"
	logFormatSlog = "slog"
)

type Config struct {
	Addr string
	// MetricsAddr serves /metrics, empty disables metrics.
	MetricsAddr string

	IDStrategy string
	NoSeed     bool

	LogFormat string
	Debug     bool
	Trace     bool

	ShutdownTimeout time.Duration
	ReadLimit       int64
}

func defaultConfig() Config {
	return Config{
		Addr:            ":3000",
		MetricsAddr:     ":8081",
		IDStrategy:      post.IDStrategySequence,
		LogFormat:       logFormatStd,
		ShutdownTimeout: 10 * time.Second,
		ReadLimit:       api.DefaultReadLimit,
	}
}

func flags() []cli.Flag {
	d := defaultConfig()

	return []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "address of the posts API",
			Value:   d.Addr,
			EnvVars: []string{"POSTS_ADDR"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "address of the Prometheus /metrics endpoint, empty disables metrics",
			Value:   d.MetricsAddr,
			EnvVars: []string{"POSTS_METRICS_ADDR"},
		},
		&cli.StringFlag{
			Name:    "id-strategy",
			Usage:   "post id assignment: sequence (ids are never reused) or max (max id + 1)",
			Value:   d.IDStrategy,
			EnvVars: []string{"POSTS_ID_STRATEGY"},
		},
		&cli.BoolFlag{
			Name:    "no-seed",
			Usage:   "start with an empty collection",
			EnvVars: []string{"POSTS_NO_SEED"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "std (key=value lines) or slog (JSON)",
			Value:   d.LogFormat,
			EnvVars: []string{"POSTS_LOG_FORMAT"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "enable debug logs",
			EnvVars: []string{"POSTS_DEBUG"},
		},
		&cli.BoolFlag{
			Name:    "trace",
			Usage:   "enable trace logs",
			EnvVars: []string{"POSTS_TRACE"},
		},
		&cli.DurationFlag{
			Name:    "shutdown-timeout",
			Usage:   "how long to wait for in-flight requests on shutdown",
			Value:   d.ShutdownTimeout,
			EnvVars: []string{"POSTS_SHUTDOWN_TIMEOUT"},
		},
		&cli.Int64Flag{
			Name:    "read-limit",
			Usage:   "maximum request body size in bytes",
			Value:   d.ReadLimit,
			EnvVars: []string{"POSTS_READ_LIMIT"},
		},
	}
}

func configFromCLI(c *cli.Context) Config {
	return Config{
		Addr:            c.String("addr"),
		MetricsAddr:     c.String("metrics-addr"),
		IDStrategy:      c.String("id-strategy"),
		NoSeed:          c.Bool("no-seed"),
		LogFormat:       c.String("log-format"),
		Debug:           c.Bool("debug"),
		Trace:           c.Bool("trace"),
		ShutdownTimeout: c.Duration("shutdown-timeout"),
		ReadLimit:       c.Int64("read-limit"),
	}
}

func (c Config) Validate() error {
	var err error

	if c.Addr == "" {
		err = multierror.Append(err, errors.New("empty addr"))
	}
	if _, idErr := post.ParseIDStrategy(c.IDStrategy); idErr != nil {
		err = multierror.Append(err, idErr)
	}
	if c.LogFormat != logFormatStd && c.LogFormat != logFormatSlog {
		err = multierror.Append(err, errors.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.ShutdownTimeout <= 0 {
		err = multierror.Append(err, errors.New("shutdown timeout must be positive"))
	}
	if c.ReadLimit <= 0 {
		err = multierror.Append(err, errors.New("read limit must be positive"))
	}

	return err
}

// Logger builds the logger selected by LogFormat, writing to out.
func (c Config) Logger(out io.Writer) (postsapi.LoggerAdapter, error) {
	switch c.LogFormat {
	case logFormatStd:
		return postsapi.NewStdLoggerWithOut(out, c.Debug, c.Trace), nil
	case logFormatSlog:
		return postsapi.NewSlogJSONLogger(out, c.Debug, c.Trace), nil
	default:
		return nil, errors.Errorf("unknown log format %q", c.LogFormat)
	}
}
