// Package tags measures how the relative prevalence of user tags changes
// across release years.
package tags

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/util"
)

// Default trend window
const (
	DefaultFrom = 2008
	DefaultTo   = 2018
)

// Membership is the binarized tag matrix: Present[i][j] is 1 when game
// AppIDs[i] carries tag Tags[j]
type Membership struct {
	Tags    []string
	AppIDs  []int64
	Present [][]uint8
	index   map[int64]int
}

// Binarize marks a tag present when its strength is at least half of the
// game's strongest tag. A game whose strengths are all zero therefore
// carries every tag.
func Binarize(m *dataset.TagMatrix) *Membership {
	mem := &Membership{
		Tags:    m.Tags,
		AppIDs:  m.AppIDs,
		Present: make([][]uint8, len(m.Strength)),
		index:   make(map[int64]int, len(m.AppIDs)),
	}

	for i, row := range m.Strength {
		max := math.Inf(-1)
		for _, v := range row {
			if v > max {
				max = v
			}
		}
		threshold := max / 2

		bits := make([]uint8, len(row))
		for j, v := range row {
			if v >= threshold {
				bits[j] = 1
			}
		}
		mem.Present[i] = bits
		mem.index[m.AppIDs[i]] = i
	}
	return mem
}

// Row returns the membership bits of a game
func (m *Membership) Row(appID int64) ([]uint8, bool) {
	i, ok := m.index[appID]
	if !ok {
		return nil, false
	}
	return m.Present[i], true
}

// TagIndex returns the column of a tag
func (m *Membership) TagIndex(tag string) (int, bool) {
	for i, t := range m.Tags {
		if t == tag {
			return i, true
		}
	}
	return 0, false
}

// RatioTable holds per-year tag counts and each tag's share of that year's
// total memberships
type RatioTable struct {
	Tags   []string
	Years  []int // ascending
	Counts map[int][]int
	Ratios map[int][]float64
}

// Ratio returns the share of tag column j in year, if the year has data
func (t *RatioTable) Ratio(year, j int) (float64, bool) {
	r, ok := t.Ratios[year]
	if !ok {
		return 0, false
	}
	return r[j], true
}

// YearRatios sums memberships per release year and divides each tag's count
// by the year's total. Games without a tag row are skipped; years whose
// total is zero carry no ratio.
func YearRatios(games []*dataset.Game, mem *Membership) (*RatioTable, error) {
	t := &RatioTable{
		Tags:   mem.Tags,
		Counts: make(map[int][]int),
		Ratios: make(map[int][]float64),
	}

	for _, g := range games {
		bits, ok := mem.Row(g.AppID)
		if !ok {
			continue
		}
		year, err := strconv.Atoi(g.ReleaseYear)
		if err != nil {
			return nil, fmt.Errorf("%w: app %d release year %q", util.ErrMalformedField, g.AppID, g.ReleaseYear)
		}
		counts, ok := t.Counts[year]
		if !ok {
			counts = make([]int, len(mem.Tags))
			t.Counts[year] = counts
		}
		for j, b := range bits {
			counts[j] += int(b)
		}
	}

	for year, counts := range t.Counts {
		total := 0
		for _, c := range counts {
			total += c
		}
		if total == 0 {
			continue
		}
		ratios := make([]float64, len(counts))
		for j, c := range counts {
			ratios[j] = float64(c) / float64(total)
		}
		t.Ratios[year] = ratios
		t.Years = append(t.Years, year)
	}
	sort.Ints(t.Years)

	return t, nil
}

// Swing is the spread of one tag's share over the trend window
type Swing struct {
	Tag     string
	Swing   float64
	Min     float64
	MinYear int
	Max     float64
	MaxYear int
}

// ChangedTags ranks tags by max - min of their share over [from, to] and
// returns the first n. Years without data are left out of the min and max;
// equal swings keep tag column order.
func ChangedTags(t *RatioTable, from, to, n int) ([]Swing, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: tag count must be positive, got %d", util.ErrInvalidArgument, n)
	}
	if from > to {
		return nil, fmt.Errorf("%w: window %d-%d is inverted", util.ErrInvalidArgument, from, to)
	}

	var years []int
	for _, y := range t.Years {
		if y >= from && y <= to {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: no release years with tag data in %d-%d", util.ErrUndefinedStatistic, from, to)
	}

	swings := make([]Swing, len(t.Tags))
	for j, tag := range t.Tags {
		s := Swing{Tag: tag, Min: math.Inf(1), Max: math.Inf(-1)}
		for _, y := range years {
			r := t.Ratios[y][j]
			if r < s.Min {
				s.Min, s.MinYear = r, y
			}
			if r > s.Max {
				s.Max, s.MaxYear = r, y
			}
		}
		s.Swing = s.Max - s.Min
		swings[j] = s
	}

	sort.SliceStable(swings, func(a, b int) bool {
		return swings[a].Swing > swings[b].Swing
	})
	if len(swings) > n {
		swings = swings[:n]
	}
	return swings, nil
}
