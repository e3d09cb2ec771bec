package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newJobCmd creates the job command group for polling and cancelling
// queued calculations.
func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "job", Short: "Asynchronous job management"}
	cmd.AddCommand(newJobStatusCmd(), newJobCancelCmd())
	return cmd
}

func newJobStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current state of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.close() //nolint:errcheck

			job, found, err := a.svc.JobStatus(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("looking up job: %w", err)
			}
			if !found {
				return fmt.Errorf("job %s not found", args[0])
			}

			format, _ := cmd.Flags().GetString("output")
			if format == "json" {
				return printJSON(cmd, job)
			}

			cmd.Printf("Job %s\n", job.ID)
			cmd.Printf("  Product:  %s\n", job.ProductID)
			cmd.Printf("  Status:   %s\n", job.Status)
			cmd.Printf("  Progress: %d%%\n", job.Progress)
			if job.ErrorMessage != "" {
				cmd.Printf("  Error:    %s\n", job.ErrorMessage)
			}
			if job.Result != nil {
				cmd.Printf("  Carbon:   %.3f kg CO2e\n", job.Result.TotalCarbonKg)
				cmd.Printf("  Water:    %.1f L\n", job.Result.TotalWaterL)
			}
			return nil
		},
	}
	cmd.Flags().String("output", "text", "output format: text or json")
	return cmd
}

func newJobCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending or processing job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.close() //nolint:errcheck

			cancelled, err := a.svc.CancelJob(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("cancelling job: %w", err)
			}
			if !cancelled {
				return fmt.Errorf("job %s is not cancellable (unknown or already finished)", args[0])
			}
			cmd.Printf("Job %s cancelled\n", args[0])
			return nil
		},
	}
}
