package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/drafts"
)

// NewDrafts opens the configured draft store, or returns nil when none is configured.
func NewDrafts(ctx context.Context, logger *slog.Logger, draftsURL string) (drafts.Store, error) { //nolint:ireturn
	if draftsURL == "" {
		logger.Info("No draft store configured")

		return nil, nil //nolint:nilnil
	}

	return drafts.Open(ctx, logger, draftsURL)
}
