package cmd

import (
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/config"
	"github.com/dukex/flowcanvas/pkg/drafts"
	"github.com/dukex/flowcanvas/pkg/editor"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/history"
	"github.com/dukex/flowcanvas/pkg/web"
)

// NewSessionFactory returns a factory for editor sessions sharing one
// service and draft store.
func NewSessionFactory(logger *slog.Logger, cfg config.Config, service editor.Service, store drafts.Store) web.SessionFactory {
	return func() (*editor.Session, error) {
		return editor.NewSession(editor.Options{
			Service: service,
			Drafts:  store,
			Logger:  logger,
			Graph:   graph.Options{AllowCycles: cfg.AllowCycles},
			History: history.Options{
				Capacity: cfg.History.Capacity,
				Interval: cfg.History.Interval,
			},
		})
	}
}
