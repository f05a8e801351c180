package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/franz/storefront-insights/internal/analysis"
	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/report"
	"github.com/franz/storefront-insights/internal/score"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/spf13/cobra"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Rank developers or publishers by composite score",
	Long: `Score every company of the chosen role and print the leaders.

The composite score standardizes the log10 game count, log10 owners and
log10 average total ratings of each company together with its average
rating, weighting them 0.2, 0.2, 0.2 and 0.4. Nothing is written to the
database.`,
	RunE: runCompanies,
}

func init() {
	rootCmd.AddCommand(companiesCmd)

	companiesCmd.Flags().String("role", "developer", "Company role: developer or publisher")
	companiesCmd.Flags().Int("limit", 0, "Number of top companies (default 10)")
	companiesCmd.Flags().Int("title-limit", 0, "Titles listed per company (default 5)")
	companiesCmd.Flags().Bool("strict", false, "Fail when a company score is undefined instead of excluding it")
	companiesCmd.Flags().String("zero-reviews", "", "Policy for games without reviews: exclude or neutral")
	companiesCmd.Flags().String("timeline", "", "Also print per-year genre counts for this company")
}

func runCompanies(cmd *cobra.Command, args []string) error {
	setupLogging()

	roleFlag, _ := cmd.Flags().GetString("role")
	role, err := dataset.ParseRole(roleFlag)
	if err != nil {
		return err
	}

	runner, err := analysis.New(buildAnalysisConfig(cmd), nil, report.NullLogger())
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	res, err := runner.Analyze(ctx, analysis.Stages{Companies: true})
	if err != nil {
		return err
	}

	ranking := res.Developers
	if role == dataset.RolePublisher {
		ranking = res.Publishers
	}
	printRanking(cmd, ranking)

	if company, _ := cmd.Flags().GetString("timeline"); company != "" {
		printTimeline(cmd, company, score.Timeline(res.Games, role, company))
	}
	return nil
}

func printRanking(cmd *cobra.Command, ranking *score.Ranking) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Top %ss (%d scored, %d excluded)\n\n", ranking.Role, len(ranking.Companies), len(ranking.Excluded))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tGAMES\tAVG PRICE\tAVG RATINGS\tAVG RATING\tOWNERS\tSCORE\tTOP TITLES")
	for _, l := range ranking.Top {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%.0f\t%s\t%s\t%.3f\t%s\n",
			l.Rank,
			l.Name,
			l.GameNum,
			util.FormatPrice(l.AvgPrice),
			l.AvgTotalRatings,
			util.FormatRatio(l.AvgRating),
			util.FormatCount(l.SumOwners),
			l.Score,
			strings.Join(l.TopTitles, ", "),
		)
	}
	w.Flush()
}

func printTimeline(cmd *cobra.Command, company string, years []score.YearGenres) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nReleases of %q by year\n\n", company)
	if len(years) == 0 {
		fmt.Fprintln(out, "No games found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "YEAR\tGAMES\t%s\n", strings.ToUpper(strings.Join(dataset.Genres, "\t")))
	for _, y := range years {
		cells := make([]string, len(dataset.Genres))
		for i, genre := range dataset.Genres {
			cells[i] = fmt.Sprint(y.Genres[genre])
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", y.Year, y.Games, strings.Join(cells, "\t"))
	}
	w.Flush()
}
