package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/dukex/flowcanvas/pkg/debug"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/urfave/cli/v3"
)

func NewDebugCommand() *cli.Command {
	return &cli.Command{
		Name:      "debug",
		Aliases:   []string{"d"},
		Usage:     "Run a saved workflow in debug mode and print node events",
		ArgsUsage: "<workflow-id>",
		Flags:     []cli.Flag{inputFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("%w: workflow id", errMissingArgument)
			}

			inputs, err := parseInputs(command.StringSlice("input"))
			if err != nil {
				return err
			}

			e, err := setup(ctx, command, "debug")
			if err != nil {
				return err
			}
			defer e.close(ctx)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			enc := json.NewEncoder(os.Stdout)

			session := debug.NewSession(e.client, debug.Options{
				Logger: e.logger,
				OnEvent: func(event models.NodeExecutionEvent) {
					if err := enc.Encode(event); err != nil {
						e.logger.Warn("Failed to print event", "error", err)
					}
				},
			})

			if err := session.Start(ctx, id, inputs); err != nil {
				return err
			}

			session.Wait()

			return session.Err()
		},
	}
}
