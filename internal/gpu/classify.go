// Package gpu buckets recommended graphics cards by model number and sums
// the owners of the games recommending them.
package gpu

import (
	"regexp"
	"sort"
	"strconv"
)

// DefaultLimit is the number of tiers kept by owners
const DefaultLimit = 30

const (
	minModel    = 100
	maxModel    = 3000
	legacyModel = 2999
)

var digitRun = regexp.MustCompile(`\d+`)

// Sample is one game's parsed GPU string and owner count
type Sample struct {
	GPU    string
	Owners int64
}

// Tier is one bucket of the classification
type Tier struct {
	Label  string
	Owners int64
	Major  int
	Minor  int
	Group  int // increments each time Minor changes in display order
	Legacy bool
}

// ClassifyLabel maps a parsed GPU string to its bucket label and ordering
// keys. Model numbers outside [100, 3000] and round hundreds are discarded;
// 3000 is a legacy card keyed by the whole string.
func ClassifyLabel(gpu string) (label string, major, minor int, ok bool) {
	run := digitRun.FindString(gpu)
	if run == "" {
		return "", 0, 0, false
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		// longer than any int; far outside the model range
		return "", 0, 0, false
	}

	switch {
	case n < minModel || n > maxModel:
		return "", 0, 0, false
	case n > legacyModel:
		return gpu, 0, 0, true
	case n%100 == 0:
		return "", 0, 0, false
	}
	return " " + strconv.Itoa(n), n / 100, n % 100, true
}

// Classify sums owners per label, keeps the limit largest buckets and
// orders them by (minor, major) ascending. limit <= 0 uses DefaultLimit.
func Classify(samples []Sample, limit int) []Tier {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var tiers []Tier
	index := make(map[string]int)
	for _, s := range samples {
		if s.GPU == "" {
			continue
		}
		label, major, minor, ok := ClassifyLabel(s.GPU)
		if !ok {
			continue
		}
		i, seen := index[label]
		if !seen {
			i = len(tiers)
			index[label] = i
			tiers = append(tiers, Tier{
				Label:  label,
				Major:  major,
				Minor:  minor,
				Legacy: major == 0 && minor == 0,
			})
		}
		tiers[i].Owners += s.Owners
	}

	sort.SliceStable(tiers, func(a, b int) bool {
		return tiers[a].Owners > tiers[b].Owners
	})
	if len(tiers) > limit {
		tiers = tiers[:limit]
	}

	sort.SliceStable(tiers, func(a, b int) bool {
		if tiers[a].Minor != tiers[b].Minor {
			return tiers[a].Minor < tiers[b].Minor
		}
		return tiers[a].Major < tiers[b].Major
	})

	for i := range tiers {
		if i > 0 && tiers[i].Minor != tiers[i-1].Minor {
			tiers[i].Group = tiers[i-1].Group + 1
		} else if i > 0 {
			tiers[i].Group = tiers[i-1].Group
		}
	}
	return tiers
}
