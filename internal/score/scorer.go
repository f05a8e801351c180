package score

import (
	"context"
	"fmt"
	"sort"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/report"
	"github.com/franz/storefront-insights/internal/util"
)

const (
	DefaultLimit      = 10
	DefaultTitleLimit = 5
)

// Leader is a top-ranked company with its best titles and genre mix
type Leader struct {
	*Company
	Rank        int
	TopTitles   []string
	GenreCounts map[string]int
}

// Ranking is the outcome of scoring one role
type Ranking struct {
	Role dataset.Role
	// Companies holds every scored company in name order
	Companies []*Company
	// Excluded holds companies whose composite score is undefined
	Excluded []*Company
	Top      []*Leader
}

// Options tunes Rank
type Options struct {
	Limit      int  // number of leaders, default 10
	TitleLimit int  // titles listed per leader, default 5
	Strict     bool // fail instead of excluding unscorable companies
}

// Rank aggregates games by role, scores the companies and returns the
// leaders by descending score. Ties keep name order.
func Rank(games []*dataset.Game, role dataset.Role, opts Options) (*Ranking, error) {
	if opts.Limit < 0 || opts.TitleLimit < 0 {
		return nil, fmt.Errorf("%w: limits must not be negative", util.ErrInvalidArgument)
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}
	if opts.TitleLimit == 0 {
		opts.TitleLimit = DefaultTitleLimit
	}

	companies, err := Aggregate(games, role)
	if err != nil {
		return nil, err
	}

	ranking := &Ranking{Role: role}
	for _, c := range companies {
		if c.Scorable() {
			ranking.Companies = append(ranking.Companies, c)
			continue
		}
		if opts.Strict {
			return nil, fmt.Errorf("%w: company %q cannot be scored (owners=%d, avg_total_ratings=%g)",
				util.ErrUndefinedStatistic, c.Name, c.SumOwners, c.AvgTotalRatings)
		}
		ranking.Excluded = append(ranking.Excluded, c)
	}

	if err := ApplyCompositeScores(ranking.Companies); err != nil {
		return nil, err
	}

	ordered := make([]*Company, len(ranking.Companies))
	copy(ordered, ranking.Companies)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})
	if len(ordered) > opts.Limit {
		ordered = ordered[:opts.Limit]
	}

	byCompany := gamesByCompany(games, role)
	for i, c := range ordered {
		owned := byCompany[c.Name]
		ranking.Top = append(ranking.Top, &Leader{
			Company:     c,
			Rank:        i + 1,
			TopTitles:   TopTitles(owned, opts.TitleLimit),
			GenreCounts: GenreCounts(owned),
		})
	}

	return ranking, nil
}

func gamesByCompany(games []*dataset.Game, role dataset.Role) map[string][]*dataset.Game {
	out := make(map[string][]*dataset.Game)
	for _, g := range games {
		name := g.Company(role)
		out[name] = append(out[name], g)
	}
	return out
}

// TopTitles returns up to n game names by descending rating; equal ratings
// keep dataset order
func TopTitles(games []*dataset.Game, n int) []string {
	sorted := make([]*dataset.Game, len(games))
	copy(sorted, games)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	names := make([]string, len(sorted))
	for i, g := range sorted {
		names[i] = g.Name
	}
	return names
}

// GenreCounts counts games per genre flag
func GenreCounts(games []*dataset.Game) map[string]int {
	counts := make(map[string]int, len(dataset.Genres))
	for _, genre := range dataset.Genres {
		counts[genre] = 0
		for _, g := range games {
			counts[genre] += g.Flag(genre)
		}
	}
	return counts
}

// Scorer ranks developers and publishers and records the outcome in the
// event log
type Scorer struct {
	opts   Options
	logger *report.EventLogger
}

// Config holds scorer configuration
type Config struct {
	Options Options
	Logger  *report.EventLogger
}

// New creates a new Scorer
func New(cfg *Config) *Scorer {
	return &Scorer{
		opts:   cfg.Options,
		logger: cfg.Logger,
	}
}

// Score ranks the companies of one role
func (s *Scorer) Score(ctx context.Context, games []*dataset.Game, role dataset.Role) (*Ranking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	util.InfoLog("Scoring %ss across %d games", role, len(games))

	ranking, err := Rank(games, role, s.opts)
	if err != nil {
		s.logger.LogError(report.EventScore, 0, err)
		return nil, fmt.Errorf("failed to rank %ss: %w", role, err)
	}

	for _, c := range ranking.Excluded {
		util.WarnLog("Excluded %s %q from scoring: owners=%d avg_total_ratings=%g",
			role, c.Name, c.SumOwners, c.AvgTotalRatings)
		s.logger.LogCompany(string(role), c.Name, 0, 0, "excluded: undefined composite inputs")
	}
	for _, l := range ranking.Top {
		s.logger.LogCompany(string(role), l.Name, l.Rank, l.Score, "")
	}

	util.SuccessLog("Scored %d %ss (%d excluded), top %d selected",
		len(ranking.Companies), role, len(ranking.Excluded), len(ranking.Top))

	return ranking, nil
}
