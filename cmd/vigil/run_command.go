package main

import (
	"strings"

	"github.com/spf13/cobra"

	"vigil/internal/config"
	"vigil/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Run the vigil daemon in the foreground",
		Annotations:  map[string]string{"skipConfigLoad": "true"},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    resolveLogLevel(logLevel, cfg),
				Development: development,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "dev", false, "Enable development logging with caller locations")
	return cmd
}

func resolveLogLevel(flagValue string, cfg *config.Config) string {
	if level := strings.TrimSpace(flagValue); level != "" {
		return level
	}
	if cfg != nil {
		return cfg.Logging.Level
	}
	return ""
}
