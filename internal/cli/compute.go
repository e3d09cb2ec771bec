package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ecotally/ecotally/internal/lca"
	"github.com/ecotally/ecotally/internal/lca/schema"
)

// newComputeCmd creates the compute command: one synchronous-or-offloaded
// footprint calculation from a stage inputs JSON document.
func newComputeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Calculate a product's environmental footprint",
		Example: `  # Hybrid tier (verified backend with local fallback)
  ecotally compute --product whisky-750ml --inputs inputs.json

  # Local enhanced tier, bypassing the cache
  ecotally compute --product whisky-750ml --inputs inputs.json --method enhanced --no-cache

  # Machine-readable output
  ecotally compute --product whisky-750ml --inputs inputs.json --output json`,
		RunE: runCompute,
	}

	cmd.Flags().String("product", "", "product identifier (required)")
	cmd.Flags().String("name", "", "product display name")
	cmd.Flags().String("inputs", "", "path to stage inputs JSON file (required)")
	cmd.Flags().String("method", "hybrid", "calculation method: simple, enhanced, verified, hybrid, professional")
	cmd.Flags().Bool("no-cache", false, "bypass the result cache")
	cmd.Flags().Bool("offload", false, "force asynchronous processing via the job queue")
	cmd.Flags().String("output", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("inputs")

	return cmd
}

func runCompute(cmd *cobra.Command, _ []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	a, err := appFromCommand(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.close(); closeErr != nil {
			a.log.Warn().Err(closeErr).Msg("shutdown error")
		}
	}()

	outcome, err := a.svc.Compute(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("calculation failed: %w", err)
	}

	format, _ := cmd.Flags().GetString("output")
	if format == "json" {
		return printJSON(cmd, outcome)
	}
	if outcome.Job != nil {
		cmd.Printf("Job queued: %s (status: %s, estimated duration: %s)\n",
			outcome.Job.JobID, outcome.Job.Status, outcome.Job.EstimatedDuration)
		cmd.Printf("Poll with: ecotally job status %s\n", outcome.Job.JobID)
		return nil
	}
	printResult(cmd, req.Product, outcome.Result)
	return nil
}

// requestFromFlags builds the calculation request: the inputs document is
// schema-validated before decoding, so structural mistakes surface as one
// clear error instead of silent zero values.
func requestFromFlags(cmd *cobra.Command) (lca.Request, error) {
	productID, _ := cmd.Flags().GetString("product")
	name, _ := cmd.Flags().GetString("name")
	inputsPath, _ := cmd.Flags().GetString("inputs")
	methodStr, _ := cmd.Flags().GetString("method")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	offload, _ := cmd.Flags().GetBool("offload")

	method, err := lca.ParseMethod(methodStr)
	if err != nil {
		return lca.Request{}, err
	}

	data, err := os.ReadFile(inputsPath)
	if err != nil {
		return lca.Request{}, fmt.Errorf("reading inputs file: %w", err)
	}
	if err := schema.ValidateStageInputs(data); err != nil {
		return lca.Request{}, err
	}
	var inputs lca.StageInputs
	if err := json.Unmarshal(data, &inputs); err != nil {
		return lca.Request{}, fmt.Errorf("decoding inputs file: %w", err)
	}

	cfg := configFromContext(cmd.Context())
	return lca.Request{
		Product: lca.Product{ID: productID, Name: name},
		Inputs:  inputs,
		Options: lca.CalculationOptions{
			Method:          method,
			UseCache:        cfg.Cache.Enabled && !noCache,
			ForceJobOffload: offload,
		},
	}, nil
}

// printResult renders the human-readable report. Quantities go through an
// English-locale printer so large totals get digit grouping.
func printResult(cmd *cobra.Command, product lca.Product, r *lca.CalculationResult) {
	p := message.NewPrinter(language.English)
	out := cmd.OutOrStdout()

	name := product.Name
	if name == "" {
		name = product.ID
	}
	p.Fprintf(out, "Footprint for %s\n", name)
	p.Fprintf(out, "  Carbon: %.3f kg CO2e\n", r.TotalCarbonKg)
	p.Fprintf(out, "  Water:  %.1f L\n", r.TotalWaterL)
	p.Fprintf(out, "  Waste:  %.3f kg (%.3f kg recyclable, %.3f kg hazardous)\n",
		r.Waste.TotalKg, r.Waste.RecyclableKg, r.Waste.HazardousKg)

	stages := make([]lca.Stage, 0, len(r.Breakdown))
	for stage := range r.Breakdown {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })
	p.Fprintf(out, "  Breakdown (kg CO2e):\n")
	for _, stage := range stages {
		p.Fprintf(out, "    %-18s %.3f\n", stage, r.Breakdown[stage])
	}

	m := r.Metadata
	p.Fprintf(out, "  Method: %s  Factors: %s  Quality: %s  Uncertainty: ±%.0f%%\n",
		m.Method, m.FactorVersion, m.DataQuality, m.UncertaintyPct)
	if m.CacheHit {
		p.Fprintf(out, "  (served from cache)\n")
	}
	if m.Annotation != "" {
		p.Fprintf(out, "  Note: %s\n", m.Annotation)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
