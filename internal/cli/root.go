// Package cli implements the ecotally command tree: compute, job, worker,
// and factors. Commands build the calculation stack from configuration on
// demand, so every invocation is self-contained.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ecotally/ecotally/internal/config"
)

// configKey carries the loaded configuration on the command context.
type configKey struct{}

func contextWithConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey{}).(config.Config); ok {
		return cfg
	}
	return config.Default()
}

// NewRootCmd creates the root Cobra command for the ecotally CLI.
// Configuration and logging are set up in PersistentPreRunE so every
// subcommand inherits a configured context.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ecotally",
		Short:   "Environmental impact calculation engine",
		Long:    "ecotally: calculate product lifecycle carbon, water, and waste footprints",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger := setupLogging(cmd, &cfg)

			ctx := contextWithConfig(cmd.Context(), cfg)
			ctx = logger.WithContext(ctx)
			cmd.SetContext(ctx)
			return nil
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to config file (YAML)")
	cmd.AddCommand(newComputeCmd(), newJobCmd(), newWorkerCmd(), newFactorsCmd())

	return cmd
}

const rootCmdExample = `  # Calculate a product footprint from a stage inputs file
  ecotally compute --product whisky-750ml --inputs inputs.json

  # Request a specific calculation tier
  ecotally compute --product whisky-750ml --inputs inputs.json --method enhanced

  # Force asynchronous processing and poll the job
  ecotally compute --product whisky-750ml --inputs inputs.json --offload
  ecotally job status 01J8ZQ3FJ0XKQJ5Y7W8N2V4T6B

  # Run the background worker pool
  ecotally worker --metrics-listen :9464

  # Inspect the active emission factor table
  ecotally factors`
