package analysis

import (
	"encoding/json"

	"github.com/franz/storefront-insights/internal/gpu"
	"github.com/franz/storefront-insights/internal/score"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/franz/storefront-insights/internal/tags"
)

// StoreResults converts an analysis result into database rows
func StoreResults(res *Result) *store.Results {
	out := &store.Results{}
	for _, ranking := range []*score.Ranking{res.Developers, res.Publishers} {
		out.Companies = append(out.Companies, companyRows(ranking)...)
	}
	out.Trends = trendRows(res.Trends)
	out.Tiers = tierRows(res.Tiers)
	return out
}

func companyRows(r *score.Ranking) []store.CompanyScore {
	if r == nil {
		return nil
	}

	rows := make([]store.CompanyScore, 0, len(r.Top))
	for _, l := range r.Top {
		titles, _ := json.Marshal(l.TopTitles)
		genres, _ := json.Marshal(l.GenreCounts)
		rows = append(rows, store.CompanyScore{
			Role:            string(r.Role),
			Rank:            l.Rank,
			Name:            l.Name,
			GameNum:         l.GameNum,
			AvgPrice:        l.AvgPrice,
			AvgTotalRatings: l.AvgTotalRatings,
			AvgRating:       l.AvgRating,
			SumOwners:       l.SumOwners,
			Score:           l.Score,
			TopTitles:       string(titles),
			GenreCounts:     string(genres),
		})
	}
	return rows
}

func trendRows(swings []tags.Swing) []store.TagTrend {
	rows := make([]store.TagTrend, 0, len(swings))
	for i, s := range swings {
		rows = append(rows, store.TagTrend{
			Rank:     i + 1,
			Tag:      s.Tag,
			Swing:    s.Swing,
			MinRatio: s.Min,
			MinYear:  s.MinYear,
			MaxRatio: s.Max,
			MaxYear:  s.MaxYear,
		})
	}
	return rows
}

func tierRows(tiers []gpu.Tier) []store.GPUTier {
	rows := make([]store.GPUTier, 0, len(tiers))
	for i, t := range tiers {
		rows = append(rows, store.GPUTier{
			Position: i,
			Label:    t.Label,
			Owners:   t.Owners,
			Major:    t.Major,
			Minor:    t.Minor,
			Grp:      t.Group,
			Legacy:   t.Legacy,
		})
	}
	return rows
}
