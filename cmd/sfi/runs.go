package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded analysis runs",
	Long: `List the runs stored in the database, newest first.

Shows the run ID, status, when it started, how long it took and the row
counts at each stage. Failed runs show their error.`,
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) error {
	setupLogging()
	limit, _ := cmd.Flags().GetInt("limit")

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, stop := commandContext(cmd)
	defer stop()

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded. Run 'sfi analyze' first.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDURATION\tLISTINGS\tMERGED\tGAMES\tEXCLUDED\tERROR")
	for _, r := range runs {
		duration := "-"
		if r.FinishedAt.Valid {
			duration = r.Duration().Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Status,
			humanize.Time(r.StartedAt),
			duration,
			humanize.Comma(int64(r.Listings)),
			humanize.Comma(int64(r.Merged)),
			humanize.Comma(int64(r.Games)),
			humanize.Comma(int64(r.Excluded)),
			r.Error,
		)
	}
	return w.Flush()
}
