package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dukex/flowcanvas/pkg/workflow"
	"github.com/urfave/cli/v3"
)

func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List the workflows stored in the service",
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command, "list")
			if err != nil {
				return err
			}
			defer e.close(ctx)

			workflows, err := e.client.ListWorkflows(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch workflows: %w", err)
			}

			fmt.Println("Available Workflows:")
			fmt.Println("====================")

			for _, w := range workflows {
				fmt.Printf("\nWorkflow: %s (%s)\n", w.Name, w.ID)
				fmt.Printf("Active: %t\n", w.IsActive)
				fmt.Printf("Nodes: %d\n", len(w.Nodes))
			}

			fmt.Printf("\nTotal workflows: %d\n", len(workflows))

			return nil
		},
	}
}

func NewGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print a workflow as JSON",
		ArgsUsage: "<workflow-id>",
		Flags:     []cli.Flag{fileFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command, "get")
			if err != nil {
				return err
			}
			defer e.close(ctx)

			w, err := e.loadWorkflow(ctx, command)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(w)
		},
	}
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Check a workflow for configuration problems",
		ArgsUsage: "<workflow-id>",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.StringFlag{
				Name:  "start",
				Usage: "Walk from this node instead of the workflow's start node",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command, "validate")
			if err != nil {
				return err
			}
			defer e.close(ctx)

			w, err := e.loadWorkflow(ctx, command)
			if err != nil {
				return err
			}

			result := workflow.NewChecker(e.logger).Check(w, command.String("start"))

			fmt.Printf("Workflow: %s (%s)\n", w.Name, w.ID)

			for _, problem := range result.Problems {
				fmt.Printf("  ❌ %s\n", problem)
			}

			for _, id := range result.Unreachable {
				fmt.Printf("  ⚠️  unreachable: %s\n", id)
			}

			if result.Valid() {
				fmt.Println("  ✅ valid")
			}

			return result.Err()
		},
	}
}
