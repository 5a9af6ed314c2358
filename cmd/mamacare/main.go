package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/mamacare/internal/config"
	"github.com/terraincognita07/mamacare/internal/logger"
)

type rootOptions struct {
	configPath string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	options := &rootOptions{}

	root := &cobra.Command{
		Use:   "mamacare",
		Short: "MamaCare maternal health companion",
		Long: `MamaCare serves the pregnancy and postpartum companion API.

Run without a subcommand to start the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), options)
		},
	}
	root.PersistentFlags().StringVar(&options.configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")

	root.AddCommand(
		newServeCommand(options),
		newMigrateCommand(options),
		newResetPasswordCommand(options),
	)
	return root
}

// load reads configuration and builds the process logger.
func (options *rootOptions) load(component string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(strings.TrimSpace(options.configPath))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config init failed: %w", err)
	}

	log, err := logger.NewWithOptions(logger.Options{
		Mode:      cfg.Logging.Mode,
		Level:     cfg.Logging.Level,
		Redact:    cfg.Logging.Redact,
		HashSalt:  cfg.Logging.HashSalt,
		Component: component,
	})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("logger init failed: %w", err)
	}
	return cfg, log, nil
}
