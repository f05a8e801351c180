package derive

import (
	"fmt"
	"strings"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/util"
)

// Source names the raw text column a flag is matched against
type Source string

const (
	SourceCategories Source = "categories"
	SourceGenres     Source = "genres"
	SourceTags       Source = "steamspy_tags"
)

// FlagRule binds a flag name to the column it is matched in.
// Matching is a case-sensitive substring test.
type FlagRule struct {
	Name   string
	Source Source
}

// DefaultFlagRules encodes the two categories and ten genres. FPS is not a
// store genre, so it is read from the tag column.
func DefaultFlagRules() []FlagRule {
	rules := make([]FlagRule, 0, len(dataset.Categories)+len(dataset.Genres))
	for _, name := range dataset.Categories {
		rules = append(rules, FlagRule{Name: name, Source: SourceCategories})
	}
	for _, name := range dataset.Genres {
		src := SourceGenres
		if name == "FPS" {
			src = SourceTags
		}
		rules = append(rules, FlagRule{Name: name, Source: src})
	}
	return rules
}

func (r FlagRule) text(l *dataset.Listing) string {
	switch r.Source {
	case SourceCategories:
		return l.Categories
	case SourceTags:
		return l.SteamspyTags
	default:
		return l.Genres
	}
}

// Match reports whether the listing carries the flag
func (r FlagRule) Match(l *dataset.Listing) bool {
	return strings.Contains(r.text(l), r.Name)
}

// EncodeFlags evaluates every rule against a listing
func EncodeFlags(rules []FlagRule, l *dataset.Listing) map[string]bool {
	flags := make(map[string]bool, len(rules))
	for _, r := range rules {
		flags[r.Name] = r.Match(l)
	}
	return flags
}

// CheckCoverage fails when a flag is set on no game, which means the
// vocabulary no longer matches the source data
func CheckCoverage(rules []FlagRule, games []*dataset.Game) error {
	var missing []string
	for _, r := range rules {
		sum := 0
		for _, g := range games {
			sum += g.Flag(r.Name)
		}
		if sum == 0 {
			missing = append(missing, fmt.Sprintf("%s (from %s)", r.Name, r.Source))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no game matches %s", util.ErrVocabularyCoverage, strings.Join(missing, ", "))
	}
	return nil
}
