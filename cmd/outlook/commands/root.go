package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mstoffel/outlook-cli/internal/app"
	"github.com/mstoffel/outlook-cli/internal/auth"
	"github.com/mstoffel/outlook-cli/internal/observability"
	"github.com/mstoffel/outlook-cli/internal/tokenstore"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "outlook",
		Usage: "Microsoft Graph mail, calendar, and tasks from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:    "account",
				Aliases: []string{"a"},
				Usage:   "account email to act as (defaults to the first signed-in account)",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "print raw JSON instead of text",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
		},
		Commands: []*cli.Command{
			authCommand(),
			mailCommand(),
			calendarCommand(),
			tasksCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// loadAndInstrument is the shared front half of every command action.
func loadAndInstrument(cmd *cli.Command) (*app.Config, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before touching the token store
	err = observability.Instrument(cfg.LogLevel, string(cfg.LogFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	return cfg, nil
}

func newResolver(cfg *app.Config) (*auth.Resolver, tokenstore.Store, error) {
	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open token store: %w", err)
	}

	resolver := auth.NewResolver(store, auth.WithAuthority(cfg.Auth.Authority))
	return resolver, store, nil
}
