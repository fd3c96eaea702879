// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"github.com/dukex/flowcanvas/pkg/config"
	"github.com/urfave/cli/v3"
)

// ConfigFlags are shared by every command that talks to the workflow service.
func ConfigFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the flowcanvas.yaml configuration file",
			Value:   "flowcanvas.yaml",
			Sources: cli.EnvVars("FLOWCANVAS_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "server-url",
			Usage:   "Base URL of the workflow service",
			Sources: cli.EnvVars("FLOWCANVAS_SERVER_URL"),
		},
		&cli.StringFlag{
			Name:    "drafts-url",
			Usage:   "Draft store location (directory, file://, redis:// or postgres://)",
			Sources: cli.EnvVars("FLOWCANVAS_DRAFTS_URL"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "otel",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("FLOWCANVAS_OTEL"),
		},
	}
}

// LoadConfig reads the configuration file and applies flags set on the
// command line or through the environment.
func LoadConfig(command *cli.Command) (config.Config, error) {
	cfg, err := config.LoadOrDefault(command.String("config"))
	if err != nil {
		return cfg, err
	}

	if command.IsSet("server-url") {
		cfg.ServerURL = command.String("server-url")
	}

	if command.IsSet("drafts-url") {
		cfg.DraftsURL = command.String("drafts-url")
	}

	if command.IsSet("log-level") {
		cfg.LogLevel = command.String("log-level")
	}

	if command.IsSet("port") {
		cfg.ListenPort = command.Int("port")
	}

	if command.IsSet("allow-cycles") {
		cfg.AllowCycles = command.Bool("allow-cycles")
	}

	return cfg, cfg.Validate()
}
