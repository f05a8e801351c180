package derive

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/report"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/schollz/progressbar/v3"
)

// ZeroReviewPolicy decides what happens to titles with no ratings, whose
// rating score is undefined
type ZeroReviewPolicy string

const (
	// ZeroReviewsExclude drops the title from the enriched dataset
	ZeroReviewsExclude ZeroReviewPolicy = "exclude"
	// ZeroReviewsNeutral scores the title at the neutral prior 0.5
	ZeroReviewsNeutral ZeroReviewPolicy = "neutral"
)

// ParseZeroReviewPolicy validates a policy name; empty selects exclude
func ParseZeroReviewPolicy(s string) (ZeroReviewPolicy, error) {
	switch ZeroReviewPolicy(s) {
	case "", ZeroReviewsExclude:
		return ZeroReviewsExclude, nil
	case ZeroReviewsNeutral:
		return ZeroReviewsNeutral, nil
	}
	return "", fmt.Errorf("%w: zero-review policy must be exclude or neutral, got %q", util.ErrInvalidConfig, s)
}

// Deriver turns merged rows into enriched game records
type Deriver struct {
	rules       []FlagRule
	zeroReviews ZeroReviewPolicy
	logger      *report.EventLogger
}

// Config holds deriver configuration
type Config struct {
	Rules       []FlagRule // defaults to DefaultFlagRules()
	ZeroReviews ZeroReviewPolicy
	Logger      *report.EventLogger
}

// New creates a new Deriver
func New(cfg *Config) *Deriver {
	rules := cfg.Rules
	if len(rules) == 0 {
		rules = DefaultFlagRules()
	}
	policy := cfg.ZeroReviews
	if policy == "" {
		policy = ZeroReviewsExclude
	}
	return &Deriver{
		rules:       rules,
		zeroReviews: policy,
		logger:      cfg.Logger,
	}
}

// Result summarises a derivation pass
type Result struct {
	Derived  int
	Excluded []int64 // app IDs dropped by the zero-review policy
	Duration time.Duration
}

// Derive enriches every merged row. A malformed owners range or release date
// aborts the batch; zero-review titles follow the configured policy.
func (d *Deriver) Derive(ctx context.Context, rows []*dataset.Merged) ([]*dataset.Game, *Result, error) {
	start := time.Now()
	result := &Result{}
	games := make([]*dataset.Game, 0, len(rows))

	var bar *progressbar.ProgressBar
	if util.ShowProgress() {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Deriving"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("games"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
	}

	for i, row := range rows {
		if i%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			default:
			}
		}

		g, err := d.DeriveOne(row)
		if err != nil {
			d.logger.LogError(report.EventDerive, row.AppID, err)
			return nil, nil, fmt.Errorf("app %d: %w", row.AppID, err)
		}

		if bar != nil {
			bar.Add(1)
		}

		if g == nil {
			result.Excluded = append(result.Excluded, row.AppID)
			d.logger.LogSkip(report.EventDerive, row.AppID, "no ratings")
			continue
		}
		games = append(games, g)
	}

	if err := CheckCoverage(d.rules, games); err != nil {
		return nil, nil, err
	}

	result.Derived = len(games)
	result.Duration = time.Since(start)

	if len(result.Excluded) > 0 {
		util.WarnLog("Excluded %d titles with no ratings", len(result.Excluded))
	}
	util.DebugLog("Derived %d games in %v", result.Derived, result.Duration)

	return games, result, nil
}

// DeriveOne enriches a single merged row. It returns (nil, nil) when the
// title has no ratings and the policy excludes it.
func (d *Deriver) DeriveOne(row *dataset.Merged) (*dataset.Game, error) {
	year, err := ReleaseYear(row.ReleaseDate)
	if err != nil {
		return nil, err
	}

	owners, err := OwnersMidpoint(row.Owners)
	if err != nil {
		return nil, err
	}

	total := row.PositiveRatings + row.NegativeRatings
	score, err := RatingScore(row.PositiveRatings, row.NegativeRatings)
	var rating float64
	switch {
	case err == nil:
		rating = SmoothedRating(score, total)
	case d.zeroReviews == ZeroReviewsNeutral:
		score, rating = neutralRating, neutralRating
	default:
		return nil, nil
	}

	return &dataset.Game{
		AppID:           row.AppID,
		Name:            row.Name,
		Developer:       CompanyName(row.Developer),
		Publisher:       CompanyName(row.Publisher),
		ReleaseDate:     row.ReleaseDate,
		ReleaseYear:     year,
		Price:           row.Price,
		Owners:          owners,
		PositiveRatings: row.PositiveRatings,
		NegativeRatings: row.NegativeRatings,
		TotalRatings:    total,
		RatingScore:     score,
		Rating:          rating,
		RecommendedSpec: row.RecommendedSpec,
		GPU:             ParseGPU(row.RecommendedSpec),
		Flags:           EncodeFlags(d.rules, &row.Listing),
	}, nil
}
