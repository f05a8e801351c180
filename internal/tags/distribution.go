package tags

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/util"
	"gonum.org/v1/gonum/stat"
)

// YearScores summarises the rating scores of one tag's games in a year
type YearScores struct {
	Year   int
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Scores []float64 // ascending
}

// ScoreDistribution collects, per release year in [from, to], the rating
// scores of games carrying tag. Years without such games are omitted.
func ScoreDistribution(games []*dataset.Game, mem *Membership, tag string, from, to int) ([]YearScores, error) {
	col, ok := mem.TagIndex(tag)
	if !ok {
		return nil, fmt.Errorf("%w: unknown tag %q", util.ErrInvalidArgument, tag)
	}

	byYear := make(map[int][]float64)
	for _, g := range games {
		bits, ok := mem.Row(g.AppID)
		if !ok || bits[col] == 0 {
			continue
		}
		year, err := strconv.Atoi(g.ReleaseYear)
		if err != nil {
			return nil, fmt.Errorf("%w: app %d release year %q", util.ErrMalformedField, g.AppID, g.ReleaseYear)
		}
		if year < from || year > to {
			continue
		}
		byYear[year] = append(byYear[year], g.RatingScore)
	}

	out := make([]YearScores, 0, len(byYear))
	for year, scores := range byYear {
		sort.Float64s(scores)
		ys := YearScores{
			Year:   year,
			Count:  len(scores),
			Mean:   stat.Mean(scores, nil),
			Median: stat.Quantile(0.5, stat.Empirical, scores, nil),
			Scores: scores,
		}
		if len(scores) > 1 {
			ys.StdDev = stat.StdDev(scores, nil)
		}
		out = append(out, ys)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}
