package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/urfave/cli/v3"
)

var errMissingArgument = errors.New("missing argument")

func inputFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Workflow input as key=value; JSON values are decoded",
	}
}

// parseInputs turns key=value pairs into workflow inputs. A value that is
// valid JSON is decoded, anything else is kept as a string.
func parseInputs(pairs []string) (map[string]any, error) {
	inputs := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q, expected key=value", pair)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			inputs[key] = decoded
		} else {
			inputs[key] = value
		}
	}

	return inputs, nil
}

func NewExecuteCommand() *cli.Command {
	return &cli.Command{
		Name:      "execute",
		Aliases:   []string{"x"},
		Usage:     "Start a run of a saved workflow",
		ArgsUsage: "<workflow-id>",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.BoolFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "Poll the execution status until it finishes",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("%w: workflow id", errMissingArgument)
			}

			inputs, err := parseInputs(command.StringSlice("input"))
			if err != nil {
				return err
			}

			e, err := setup(ctx, command, "execute")
			if err != nil {
				return err
			}
			defer e.close(ctx)

			executionID, err := e.client.Execute(ctx, id, inputs)
			if err != nil {
				return fmt.Errorf("failed to execute workflow %s: %w", id, err)
			}

			fmt.Printf("Execution: %s\n", executionID)

			if !command.Bool("wait") {
				return nil
			}

			status, err := e.client.PollStatus(ctx, id, executionID, func(s models.ExecutionStatus) {
				fmt.Printf("Status: %s\n", s)
			})
			if err != nil {
				return err
			}

			if status != models.ExecutionStatusCompleted {
				return fmt.Errorf("execution %s finished with status %s", executionID, status)
			}

			return nil
		},
	}
}

func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Print the status of an execution",
		ArgsUsage: "<workflow-id> <execution-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id, executionID := command.Args().Get(0), command.Args().Get(1)
			if id == "" || executionID == "" {
				return fmt.Errorf("%w: workflow id and execution id", errMissingArgument)
			}

			e, err := setup(ctx, command, "status")
			if err != nil {
				return err
			}
			defer e.close(ctx)

			status, err := e.client.Status(ctx, id, executionID)
			if err != nil {
				return err
			}

			fmt.Println(status)

			return nil
		},
	}
}
