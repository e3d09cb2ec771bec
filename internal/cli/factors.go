package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// newFactorsCmd creates the factors command: print the active factor table
// so operators can confirm which coefficients a deployment uses.
func newFactorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Show the active emission factor table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromContext(cmd.Context())
			model, err := loadModel(cfg)
			if err != nil {
				return err
			}

			entries := model.Entries()
			format, _ := cmd.Flags().GetString("output")
			if format == "json" {
				return printJSON(cmd, map[string]any{
					"version": model.Version(),
					"factors": entries,
				})
			}

			p := message.NewPrinter(language.English)
			out := cmd.OutOrStdout()
			p.Fprintf(out, "Factor table %s (%d entries)\n", model.Version(), len(entries))
			for _, e := range entries {
				p.Fprintf(out, "  %-24s per %-10s %g\n", e.Category, e.Unit, e.Value)
			}
			return nil
		},
	}
	cmd.Flags().String("output", "text", "output format: text or json")
	return cmd
}
