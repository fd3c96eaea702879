package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/flowcanvas/pkg/cmd"
	"github.com/dukex/flowcanvas/pkg/drafts"
	"github.com/urfave/cli/v3"
)

var errNoDraftStore = errors.New("no draft store configured, set --drafts-url")

// withDrafts opens the draft store for the duration of fn.
func withDrafts(ctx context.Context, command *cli.Command, fn func(*env, drafts.Store) error) error {
	e, err := setup(ctx, command, "drafts")
	if err != nil {
		return err
	}
	defer e.close(ctx)

	store, err := cmd.NewDrafts(ctx, e.logger, e.cfg.DraftsURL)
	if err != nil {
		return err
	}

	if store == nil {
		return errNoDraftStore
	}

	defer func() {
		if err := store.Close(); err != nil {
			e.logger.ErrorContext(ctx, "Failed to close draft store", "error", err)
		}
	}()

	return fn(e, store)
}

func NewDraftsCommand() *cli.Command {
	return &cli.Command{
		Name:  "drafts",
		Usage: "Manage locally saved drafts",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List drafts, newest first",
				Action: func(ctx context.Context, command *cli.Command) error {
					return withDrafts(ctx, command, func(_ *env, store drafts.Store) error {
						list, err := store.List(ctx)
						if err != nil {
							return err
						}

						for _, d := range list {
							fmt.Printf("%s\t%s\t%s\n", d.Key, d.SavedAt.Format("2006-01-02 15:04:05"), d.Name)
						}

						return nil
					})
				},
			},
			{
				Name:      "push",
				Usage:     "Save a draft to the workflow service",
				ArgsUsage: "<key>",
				Action: func(ctx context.Context, command *cli.Command) error {
					key := command.Args().First()
					if key == "" {
						return fmt.Errorf("%w: draft key", errMissingArgument)
					}

					return withDrafts(ctx, command, func(e *env, store drafts.Store) error {
						draft, err := store.Load(ctx, key)
						if err != nil {
							return err
						}

						saved, err := e.client.Save(ctx, draft.Workflow)
						if err != nil {
							return fmt.Errorf("failed to save draft %s: %w", key, err)
						}

						fmt.Printf("Saved %s as workflow %s\n", key, saved.ID)

						return nil
					})
				},
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a draft",
				ArgsUsage: "<key>",
				Action: func(ctx context.Context, command *cli.Command) error {
					key := command.Args().First()
					if key == "" {
						return fmt.Errorf("%w: draft key", errMissingArgument)
					}

					return withDrafts(ctx, command, func(_ *env, store drafts.Store) error {
						return store.Delete(ctx, key)
					})
				},
			},
		},
	}
}
