package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:           "postsapi",
		Usage:          "in-memory posts JSON API",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve the posts API until interrupted",
				Flags:  flags(),
				Action: serve,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	config := configFromCLI(c)
	if err := config.Validate(); err != nil {
		return err
	}

	logger, err := config.Logger(os.Stderr)
	if err != nil {
		return err
	}

	s, err := newService(config, logger)
	if err != nil {
		return err
	}

	return s.ListenAndServe(c.Context)
}
