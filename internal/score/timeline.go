package score

import (
	"sort"

	"github.com/franz/storefront-insights/internal/dataset"
)

// YearGenres is one year of a company's release history
type YearGenres struct {
	Year   string
	Games  int
	Genres map[string]int
}

// Timeline counts a company's games per release year and genre. Years are
// ascending; the company name must match exactly.
func Timeline(games []*dataset.Game, role dataset.Role, company string) []YearGenres {
	byYear := make(map[string][]*dataset.Game)
	for _, g := range games {
		if g.Company(role) == company {
			byYear[g.ReleaseYear] = append(byYear[g.ReleaseYear], g)
		}
	}

	years := make([]string, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Strings(years)

	out := make([]YearGenres, 0, len(years))
	for _, y := range years {
		out = append(out, YearGenres{
			Year:   y,
			Games:  len(byYear[y]),
			Genres: GenreCounts(byYear[y]),
		})
	}
	return out
}
