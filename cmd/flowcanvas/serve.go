package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/flowcanvas/pkg/cmd"
	"github.com/dukex/flowcanvas/pkg/web"
	"github.com/urfave/cli/v3"
)

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the editor server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the editor server on",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.BoolFlag{
				Name:    "allow-cycles",
				Usage:   "Let connections close directed cycles",
				Sources: cli.EnvVars("FLOWCANVAS_ALLOW_CYCLES"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command, "editor-server")
			if err != nil {
				return err
			}
			defer e.close(ctx)

			e.logger.InfoContext(ctx, "Initializing flowcanvas editor", "server_url", e.cfg.ServerURL)

			store, err := cmd.NewDrafts(ctx, e.logger, e.cfg.DraftsURL)
			if err != nil {
				return err
			}

			if store != nil {
				defer func() {
					if err := store.Close(); err != nil {
						e.logger.ErrorContext(ctx, "Failed to close draft store", "error", err)
					}
				}()
			}

			server := web.NewServer(e.logger, cmd.NewSessionFactory(e.logger, e.cfg, e.client, store))

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errs := make(chan error, 1)

			go func() {
				errs <- server.Start(e.cfg.ListenPort)
			}()

			select {
			case err := <-errs:
				server.Sessions().CloseAll()

				return err
			case <-ctx.Done():
				e.logger.Info("Shutting down editor server")

				return server.Shutdown()
			}
		},
	}
}
