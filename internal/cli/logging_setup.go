package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ecotally/ecotally/internal/config"
	"github.com/ecotally/ecotally/internal/logging"
)

// setupLogging builds the process logger from config and CLI flags. The
// --debug flag overrides the configured level and forces console output.
func setupLogging(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	loggingCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = "console"
	}

	logger := logging.NewLogger(loggingCfg)
	traceID := logging.GetOrGenerateTraceID(cmd.Context())
	logger = logger.With().Str("trace_id", traceID).Logger()

	logger.Debug().Str("command", cmd.Name()).Msg("command started")
	return logger
}
