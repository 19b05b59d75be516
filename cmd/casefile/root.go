package main

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/casefile/internal/client"
	"github.com/JaimeStill/casefile/pkg/logging"
)

// Environment defaults for the global flags.
const (
	EnvServer = "CASEFILE_SERVER"
	EnvToken  = "CASEFILE_TOKEN"
	EnvActor  = "CASEFILE_ACTOR"
)

var validFormats = []string{"text", "json"}

type rootOptions struct {
	Server  string
	Token   string
	Actor   string
	Format  string
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "casefile",
		Short: "Upload and review versioned case documents",
		Long: `casefile talks to a casefile server. Every upload becomes a new numbered
version of its document slot; earlier versions stay in the history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			if opts.Server == "" {
				return fmt.Errorf("server URL required (--server or %s)", EnvServer)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr(EnvServer, "http://localhost:8080/api"), "API base URL")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv(EnvToken), "bearer token")
	cmd.PersistentFlags().StringVar(&opts.Actor, "actor", os.Getenv(EnvActor), "actor name for servers without authentication")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newUploadCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))
	cmd.AddCommand(newRejectCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))
	cmd.AddCommand(newRestoreCommand(opts))

	return cmd
}

func (o *rootOptions) client() *client.Client {
	var opts []client.Option
	if o.Token != "" {
		opts = append(opts, client.WithToken(o.Token))
	}
	if o.Actor != "" {
		opts = append(opts, client.WithActor(o.Actor))
	}
	return client.New(o.Server, opts...)
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	cfg := &logging.Config{Level: logging.LevelWarn, Format: logging.FormatText}
	if o.Verbose {
		cfg.Level = logging.LevelDebug
	}
	return logging.NewWithWriter(cfg, cmd.ErrOrStderr())
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
