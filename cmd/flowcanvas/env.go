package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/flowcanvas/pkg/client"
	"github.com/dukex/flowcanvas/pkg/cmd"
	"github.com/dukex/flowcanvas/pkg/config"
	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"github.com/urfave/cli/v3"
)

var errMissingWorkflow = errors.New("a workflow id or --file is required")

// env is what every command needs: configuration, a logger and a client.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	client   *client.Client
	shutdown otelhelper.ShutdownFunc
}

func setup(ctx context.Context, command *cli.Command, module string) (*env, error) {
	cfg, err := cmd.LoadConfig(command)
	if err != nil {
		return nil, err
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithModule(module)

	c, shutdown, err := cmd.NewClient(ctx, logger, cfg, command.Bool("otel"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	return &env{cfg: cfg, logger: logger, client: c, shutdown: shutdown}, nil
}

func (e *env) close(ctx context.Context) {
	if err := e.shutdown(ctx); err != nil {
		e.logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
	}
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Read the workflow from a JSON file instead of the service",
	}
}

// loadWorkflow reads --file when given, otherwise fetches the id in the first argument.
func (e *env) loadWorkflow(ctx context.Context, command *cli.Command) (*models.Workflow, error) {
	if path := command.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow file %s: %w", path, err)
		}

		return models.DecodeWorkflow(data)
	}

	id := command.Args().First()
	if id == "" {
		return nil, errMissingWorkflow
	}

	return e.client.Get(ctx, id)
}
