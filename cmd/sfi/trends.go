package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/franz/storefront-insights/internal/analysis"
	"github.com/franz/storefront-insights/internal/report"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/spf13/cobra"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show the tags whose yearly share changed the most",
	Long: `Binarize the SteamSpy tag matrix, compute each tag's share of games per
release year and rank tags by the spread between their lowest and highest
share inside the year window.

With --tag the yearly rating distribution of games carrying that tag is
printed as well. Requires the tag matrix (--tags or <data-dir>/steamspy_tag_data.csv).`,
	RunE: runTrends,
}

func init() {
	rootCmd.AddCommand(trendsCmd)

	trendsCmd.Flags().Int("count", 0, "Number of tags to report (default 10)")
	trendsCmd.Flags().Int("from", 0, "First year of the window (default 2008)")
	trendsCmd.Flags().Int("to", 0, "Last year of the window (default 2018)")
	trendsCmd.Flags().String("tag", "", "Also print the yearly rating distribution of this tag")
	trendsCmd.Flags().String("zero-reviews", "", "Policy for games without reviews: exclude or neutral")
}

func runTrends(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg := buildAnalysisConfig(cmd)
	if cfg.TagsPath == "" {
		return fmt.Errorf("%w: no tag matrix found, pass --tags", util.ErrInvalidConfig)
	}

	runner, err := analysis.New(cfg, nil, report.NullLogger())
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	res, err := runner.Analyze(ctx, analysis.Stages{Trends: true})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Most changed tags %d-%d\n\n", cfg.TrendFrom, cfg.TrendTo)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tTAG\tSWING\tMIN\tMIN YEAR\tMAX\tMAX YEAR")
	for i, s := range res.Trends {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%d\n",
			i+1, s.Tag,
			util.FormatRatio(s.Swing),
			util.FormatRatio(s.Min), s.MinYear,
			util.FormatRatio(s.Max), s.MaxYear,
		)
	}
	w.Flush()

	if cfg.DistributionTag == "" {
		return nil
	}

	fmt.Fprintf(out, "\nRating distribution for %q\n\n", cfg.DistributionTag)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tGAMES\tMEAN\tMEDIAN\tSTD DEV")
	for _, y := range res.Distribution {
		if y.Count == 0 {
			fmt.Fprintf(w, "%d\t0\t-\t-\t-\n", y.Year)
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.3f\t%.3f\n", y.Year, y.Count, y.Mean, y.Median, y.StdDev)
	}
	w.Flush()
	return nil
}
