package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/client"
	"github.com/dukex/flowcanvas/pkg/config"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
)

const serviceName = "flowcanvas"

// NewClient builds the workflow service client. With tracing enabled it also
// installs the OTLP exporter; the returned function flushes it.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.Config, tracing bool) (*client.Client, otelhelper.ShutdownFunc, error) {
	shutdown := func(context.Context) error { return nil }
	tracer := otelhelper.DefaultTracer()

	if tracing {
		t, stop, err := otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			return nil, nil, err
		}

		tracer, shutdown = t, stop
		logger.Info("Tracing enabled", "service", serviceName)
	}

	c := client.New(cfg.ServerURL,
		client.WithLogger(logger),
		client.WithTracer(tracer),
		client.WithPollInterval(cfg.StatusPollInterval),
	)

	return c, shutdown, nil
}
