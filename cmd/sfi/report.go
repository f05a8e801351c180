package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/storefront-insights/internal/report"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a stored run as Markdown and XLSX",
	Long: `Generate the summary report of a stored run.

The report includes:
- Run overview (inputs, row counts, duration)
- Top developers and publishers with their best titles and genre mix
- Most changed tags over the trend window
- Recommended graphics card tiers

Without --run the latest successful run is used. The files are saved to
artifacts/reports/<timestamp>/summary.md and insights.xlsx`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("run", "", "Run ID to report on (default: latest successful run)")
	reportCmd.Flags().String("out", "", "Output directory for report (default: artifacts/reports/<timestamp>)")
	reportCmd.Flags().String("event-log", "", "Path to event log file (optional)")
}

func runReport(cmd *cobra.Command, args []string) error {
	setupLogging()
	dbPath := viper.GetString("db")

	util.InfoLog("=== Generating Summary Report ===")
	util.InfoLog("Database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, stop := commandContext(cmd)
	defer stop()

	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		latest, err := db.LatestRun(ctx)
		if err != nil {
			return fmt.Errorf("no successful run to report on: %w", err)
		}
		runID = latest.ID
	}

	eventLogPath, _ := cmd.Flags().GetString("event-log")

	summary, err := report.GenerateSummaryReport(ctx, db, runID, eventLogPath)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	summary.DatabasePath = dbPath

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputDir = filepath.Join("artifacts", "reports", timestamp)
	}

	mdPath := filepath.Join(outputDir, "summary.md")
	util.InfoLog("Writing report to: %s", mdPath)
	if err := report.WriteMarkdownReport(summary, mdPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	xlsxPath := filepath.Join(outputDir, "insights.xlsx")
	util.InfoLog("Writing workbook to: %s", xlsxPath)
	if err := report.WriteWorkbook(summary, xlsxPath); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	util.SuccessLog("Report generated successfully!")
	util.InfoLog("")
	util.InfoLog("Summary:")
	util.InfoLog("  Run: %s", runID)
	util.InfoLog("  Developers: %d", len(summary.Developers))
	util.InfoLog("  Publishers: %d", len(summary.Publishers))
	util.InfoLog("  Tag trends: %d", len(summary.Trends))
	util.InfoLog("  GPU tiers: %d", len(summary.Tiers))

	run := summary.Run
	run.ReportPath = mdPath
	if err := db.FinishRun(ctx, run); err != nil {
		util.WarnLog("Could not record report path: %v", err)
	}
	return nil
}
