package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/franz/storefront-insights/internal/util"
)

// SummaryReport is everything rendered for one run
type SummaryReport struct {
	GeneratedAt time.Time
	Run         *store.Run

	Developers []store.CompanyScore
	Publishers []store.CompanyScore
	Trends     []store.TagTrend
	Tiers      []store.GPUTier

	DatabasePath string
	EventLogPath string
}

// GenerateSummaryReport loads a run and its results from the database
func GenerateSummaryReport(ctx context.Context, db *store.Store, runID, eventLogPath string) (*SummaryReport, error) {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	report := &SummaryReport{
		GeneratedAt:  time.Now(),
		Run:          run,
		EventLogPath: eventLogPath,
	}

	if report.Developers, err = db.CompanyScores(ctx, runID, string(dataset.RoleDeveloper)); err != nil {
		return nil, err
	}
	if report.Publishers, err = db.CompanyScores(ctx, runID, string(dataset.RolePublisher)); err != nil {
		return nil, err
	}
	if report.Trends, err = db.TagTrends(ctx, runID); err != nil {
		return nil, err
	}
	if report.Tiers, err = db.GPUTiers(ctx, runID); err != nil {
		return nil, err
	}

	return report, nil
}

// DecodeTitles parses a stored top-titles column
func DecodeTitles(raw string) []string {
	var titles []string
	if raw == "" {
		return titles
	}
	if err := json.Unmarshal([]byte(raw), &titles); err != nil {
		util.DebugLog("Bad top_titles value %q: %v", raw, err)
	}
	return titles
}

// DecodeGenreCounts parses a stored genre-counts column
func DecodeGenreCounts(raw string) map[string]int {
	counts := make(map[string]int)
	if raw == "" {
		return counts
	}
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		util.DebugLog("Bad genre_counts value %q: %v", raw, err)
	}
	return counts
}

// genreSummary lists non-zero genre counts in vocabulary order
func genreSummary(raw string) string {
	counts := DecodeGenreCounts(raw)
	var parts []string
	for _, g := range dataset.Genres {
		if n := counts[g]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", g, n))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# Storefront Insights - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	if run := report.Run; run != nil {
		md.WriteString("## 📊 Overview\n\n")
		md.WriteString("| Metric | Value |\n")
		md.WriteString("|--------|-------|\n")
		md.WriteString(fmt.Sprintf("| Run | `%s` |\n", run.ID))
		md.WriteString(fmt.Sprintf("| Started | %s (%s) |\n", run.StartedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt)))
		md.WriteString(fmt.Sprintf("| Status | %s |\n", run.Status))
		if d := run.Duration(); d > 0 {
			md.WriteString(fmt.Sprintf("| Duration | %s |\n", d.Round(time.Millisecond)))
		}
		md.WriteString(fmt.Sprintf("| Listings | %s |\n", util.FormatCount(int64(run.Listings))))
		md.WriteString(fmt.Sprintf("| Merged Titles | %s |\n", util.FormatCount(int64(run.Merged))))
		md.WriteString(fmt.Sprintf("| Analysed Titles | %s |\n", util.FormatCount(int64(run.Games))))
		if run.Excluded > 0 {
			md.WriteString(fmt.Sprintf("| Excluded (no ratings) | %s |\n", util.FormatCount(int64(run.Excluded))))
		}
		if run.ZeroReviews != "" {
			md.WriteString(fmt.Sprintf("| Zero-review Policy | %s |\n", run.ZeroReviews))
		}
		if run.Error != "" {
			md.WriteString(fmt.Sprintf("| Error | %s |\n", run.Error))
		}
		md.WriteString("\n")
	}

	writeCompanies(&md, "🏆 Top Developers", report.Developers)
	writeCompanies(&md, "🏢 Top Publishers", report.Publishers)

	if len(report.Trends) > 0 {
		from, to := 0, 0
		if report.Run != nil {
			from, to = report.Run.TrendFrom, report.Run.TrendTo
		}
		md.WriteString(fmt.Sprintf("## 📈 Most Changed Tags (%d-%d)\n\n", from, to))
		md.WriteString("| # | Tag | Swing | Low | High |\n")
		md.WriteString("|---|-----|-------|-----|------|\n")
		for _, t := range report.Trends {
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s (%d) | %s (%d) |\n",
				t.Rank, t.Tag, util.FormatRatio(t.Swing),
				util.FormatRatio(t.MinRatio), t.MinYear,
				util.FormatRatio(t.MaxRatio), t.MaxYear))
		}
		md.WriteString("\n")
	}

	if len(report.Tiers) > 0 {
		md.WriteString("## 🎮 Recommended Graphics Cards\n\n")
		md.WriteString("| Card | Owners | Series | Tier Group |\n")
		md.WriteString("|------|--------|--------|------------|\n")
		for _, g := range report.Tiers {
			series := fmt.Sprintf("%d / %02d", g.Major, g.Minor)
			if g.Legacy {
				series = "legacy"
			}
			md.WriteString(fmt.Sprintf("| %s | %s | %s | %d |\n",
				strings.TrimSpace(g.Label), util.FormatCount(g.Owners), series, g.Grp))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by SFI - Storefront Insights*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func writeCompanies(md *strings.Builder, title string, rows []store.CompanyScore) {
	if len(rows) == 0 {
		return
	}

	md.WriteString(fmt.Sprintf("## %s\n\n", title))
	md.WriteString("| # | Name | Score | Games | Owners | Avg Price | Avg Ratings | Avg Rating |\n")
	md.WriteString("|---|------|-------|-------|--------|-----------|-------------|------------|\n")
	for _, c := range rows {
		md.WriteString(fmt.Sprintf("| %d | %s | %.4f | %d | %s | %s | %s | %.3f |\n",
			c.Rank, escapeCell(c.Name), c.Score, c.GameNum, util.FormatCount(c.SumOwners),
			util.FormatPrice(c.AvgPrice), humanize.CommafWithDigits(c.AvgTotalRatings, 1), c.AvgRating))
	}
	md.WriteString("\n")

	for _, c := range rows {
		titles := DecodeTitles(c.TopTitles)
		if len(titles) == 0 {
			continue
		}
		md.WriteString(fmt.Sprintf("**%d. %s**\n", c.Rank, escapeCell(c.Name)))
		for _, t := range titles {
			md.WriteString(fmt.Sprintf("- %s\n", t))
		}
		md.WriteString(fmt.Sprintf("- *Genres:* %s\n\n", genreSummary(c.GenreCounts)))
	}
}

// escapeCell keeps pipes in names from breaking table rows
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
