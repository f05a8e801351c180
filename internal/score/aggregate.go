// Package score aggregates games per developer or publisher and ranks the
// companies by a standardized composite score.
package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/util"
	"gonum.org/v1/gonum/stat"
)

// Composite weights, applied to z-scores. The weighted sum is divided by
// compositeDivisor as well, so the net weights are 4/4/4/8 percent.
const (
	weightGameNum      = 0.2
	weightOwners       = 0.2
	weightTotalRatings = 0.2
	weightRating       = 0.4
	compositeDivisor   = 5
)

// spreadEpsilon is the relative spread below which a column counts as constant
const spreadEpsilon = 1e-12

// Company is the aggregate of every game sharing a developer or publisher
type Company struct {
	Name            string
	GameNum         int
	AvgPrice        float64
	AvgTotalRatings float64
	AvgRating       float64
	SumOwners       int64
	Score           float64
}

// Aggregate groups games by the role's company field. Companies come back
// sorted by name; games without a company name are skipped.
func Aggregate(games []*dataset.Game, role dataset.Role) ([]*Company, error) {
	if _, err := dataset.ParseRole(string(role)); err != nil {
		return nil, err
	}

	byName := make(map[string]*Company)
	sums := make(map[string]*[3]float64) // price, total ratings, rating
	for _, g := range games {
		name := g.Company(role)
		if name == "" {
			continue
		}
		c, ok := byName[name]
		if !ok {
			c = &Company{Name: name}
			byName[name] = c
			sums[name] = &[3]float64{}
		}
		c.GameNum++
		c.SumOwners += g.Owners
		s := sums[name]
		s[0] += g.Price
		s[1] += float64(g.TotalRatings)
		s[2] += g.Rating
	}

	companies := make([]*Company, 0, len(byName))
	for name, c := range byName {
		s := sums[name]
		n := float64(c.GameNum)
		c.AvgPrice = s[0] / n
		c.AvgTotalRatings = s[1] / n
		c.AvgRating = s[2] / n
		companies = append(companies, c)
	}
	sort.Slice(companies, func(i, j int) bool {
		return companies[i].Name < companies[j].Name
	})

	return companies, nil
}

// Scorable reports whether the log-transformed inputs of the composite
// score are defined for c
func (c *Company) Scorable() bool {
	return c.GameNum >= 1 && c.SumOwners >= 1 && c.AvgTotalRatings > 0
}

// ApplyCompositeScores sets Score on every company:
//
//	(0.2 z(log10 games) + 0.2 z(log10 owners) + 0.2 z(log10 avg ratings) + 0.4 z(avg rating)) / 5
//
// z-scores use the population standard deviation across companies. Every
// company must be Scorable.
func ApplyCompositeScores(companies []*Company) error {
	n := len(companies)
	if n == 0 {
		return nil
	}

	games := make([]float64, n)
	owners := make([]float64, n)
	totals := make([]float64, n)
	ratings := make([]float64, n)
	for i, c := range companies {
		if !c.Scorable() {
			return fmt.Errorf("%w: company %q has games=%d owners=%d avg_total_ratings=%g",
				util.ErrUndefinedStatistic, c.Name, c.GameNum, c.SumOwners, c.AvgTotalRatings)
		}
		games[i] = math.Log10(float64(c.GameNum))
		owners[i] = math.Log10(float64(c.SumOwners))
		totals[i] = math.Log10(c.AvgTotalRatings)
		ratings[i] = c.AvgRating
	}

	zGames := zscores(games)
	zOwners := zscores(owners)
	zTotals := zscores(totals)
	zRatings := zscores(ratings)

	for i, c := range companies {
		c.Score = (weightGameNum*zGames[i] +
			weightOwners*zOwners[i] +
			weightTotalRatings*zTotals[i] +
			weightRating*zRatings[i]) / compositeDivisor
	}
	return nil
}

// zscores standardizes x with its population mean and standard deviation.
// A constant column has no spread and maps to all zeros.
func zscores(x []float64) []float64 {
	mean, variance := stat.PopMeanVariance(x, nil)
	std := math.Sqrt(variance)

	z := make([]float64, len(x))
	if math.IsNaN(std) || std <= spreadEpsilon*math.Max(1, math.Abs(mean)) {
		return z
	}
	for i, v := range x {
		z[i] = stat.StdScore(v, mean, std)
	}
	return z
}
