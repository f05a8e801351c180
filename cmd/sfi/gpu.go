package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/franz/storefront-insights/internal/analysis"
	"github.com/franz/storefront-insights/internal/report"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/spf13/cobra"
)

var gpuCmd = &cobra.Command{
	Use:   "gpu",
	Short: "Bucket recommended graphics cards by total owners",
	Long: `Extract the model number from each game's recommended graphics card,
sum the owners per model and list the most owned models ordered by the
last two digits, then the leading digits. Cards numbered 3000 are kept
under their full name.`,
	RunE: runGPU,
}

func init() {
	rootCmd.AddCommand(gpuCmd)

	gpuCmd.Flags().Int("limit", 0, "Number of tiers to keep (default 30)")
	gpuCmd.Flags().String("zero-reviews", "", "Policy for games without reviews: exclude or neutral")
}

func runGPU(cmd *cobra.Command, args []string) error {
	setupLogging()

	// --limit counts tiers here, not companies
	cfg := buildAnalysisConfig(cmd)
	cfg.GPULimit = intSetting(cmd, "limit", "gpu-limit", cfg.GPULimit)
	cfg.Limit = GetConfigInt("limit", analysis.DefaultConfig().Limit)

	runner, err := analysis.New(cfg, nil, report.NullLogger())
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	res, err := runner.Analyze(ctx, analysis.Stages{GPU: true})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tCARD\tOWNERS\tMAJOR\tMINOR")
	for _, t := range res.Tiers {
		major, minor := fmt.Sprint(t.Major), fmt.Sprint(t.Minor)
		if t.Legacy {
			major, minor = "-", "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.Group, t.Label, util.FormatCount(t.Owners), major, minor)
	}
	return w.Flush()
}
