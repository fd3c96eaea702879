// Package main provides the flowcanvas command line: the editor server and
// one-shot commands against the workflow service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/flowcanvas/pkg/cmd"
	cli "github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:                  "flowcanvas",
		Usage:                 "Edit, render and run workflows",
		EnableShellCompletion: true,
		Flags:                 cmd.ConfigFlags(),
		Commands: []*cli.Command{
			NewServeCommand(),
			NewListCommand(),
			NewGetCommand(),
			NewValidateCommand(),
			NewRenderCommand(),
			NewExecuteCommand(),
			NewStatusCommand(),
			NewDebugCommand(),
			NewDraftsCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
