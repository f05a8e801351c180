package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/storefront-insights/internal/analysis"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full pipeline and store the results",
	Long: `Run every stage on the input tables and record the outcome as a run.

The pipeline:
- loads and merges the listing, SteamSpy and requirements tables
- derives the per-game fields (year, rating, owners, flags)
- ranks developers and publishers by composite score
- finds the tags whose yearly share changed the most
- buckets the recommended graphics cards by owners

Results are stored in the database under a new run ID, and a Markdown
summary plus an XLSX workbook are written to artifacts/reports/<timestamp>.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Int("limit", 0, "Number of top companies per role (default 10)")
	analyzeCmd.Flags().Int("title-limit", 0, "Titles listed per top company (default 5)")
	analyzeCmd.Flags().Bool("strict", false, "Fail when a company score is undefined instead of excluding it")
	analyzeCmd.Flags().String("zero-reviews", "", "Policy for games without reviews: exclude or neutral")
	analyzeCmd.Flags().Int("from", 0, "First year of the trend window (default 2008)")
	analyzeCmd.Flags().Int("to", 0, "Last year of the trend window (default 2018)")
	analyzeCmd.Flags().Int("count", 0, "Number of changed tags to report (default 10)")
	analyzeCmd.Flags().String("tag", "", "Tag whose yearly rating distribution is computed")
	analyzeCmd.Flags().Int("gpu-limit", 0, "Number of graphics card tiers (default 30)")
	analyzeCmd.Flags().String("report-dir", "", "Write summary.md and insights.xlsx under <dir>/<timestamp> (default artifacts/reports)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	setupLogging()
	cfg := buildAnalysisConfig(cmd)
	if cfg.ReportDir == "" {
		cfg.ReportDir = filepath.Join("artifacts", "reports")
	}
	dbPath := viper.GetString("db")

	util.InfoLog("=== SFI Analyze ===")
	util.InfoLog("Listings: %s", cfg.ListingsPath)
	util.InfoLog("Database: %s", dbPath)

	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{BulkWrite: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger, err := openEventLogger()
	if err != nil {
		return err
	}
	defer logger.Close()

	runner, err := analysis.New(cfg, db, logger)
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRun:         %s\n", res.RunID)
	fmt.Fprintf(out, "Listings:    %s\n", util.FormatCount(int64(res.MergeStats.Listings)))
	fmt.Fprintf(out, "Merged:      %s\n", util.FormatCount(int64(res.MergeStats.AfterRequirement)))
	fmt.Fprintf(out, "Games:       %s (%s excluded)\n",
		util.FormatCount(int64(len(res.Games))), util.FormatCount(int64(len(res.Derive.Excluded))))
	fmt.Fprintf(out, "Developers:  %d ranked\n", len(res.Developers.Top))
	fmt.Fprintf(out, "Publishers:  %d ranked\n", len(res.Publishers.Top))
	fmt.Fprintf(out, "Tag trends:  %d\n", len(res.Trends))
	fmt.Fprintf(out, "GPU tiers:   %d\n", len(res.Tiers))
	fmt.Fprintf(out, "Duration:    %s\n", res.Duration.Round(time.Millisecond))
	if res.MarkdownPath != "" {
		fmt.Fprintf(out, "Report:      %s\n", res.MarkdownPath)
		fmt.Fprintf(out, "Workbook:    %s\n", res.WorkbookPath)
	}
	fmt.Fprintf(out, "Event log:   %s\n", logger.Path())
	return nil
}
