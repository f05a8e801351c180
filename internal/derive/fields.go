// Package derive computes the analytical fields of a game record from its
// merged raw columns.
package derive

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/franz/storefront-insights/internal/util"
	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"
)

// neutralRating is the prior that smoothing pulls low-volume titles toward
const neutralRating = 0.5

// gpuPattern matches an NVIDIA card mention: "nvidia", optional "geforce",
// optional series prefix (gtx/gts/rtx) and a model token
var gpuPattern = regexp.MustCompile(`(?i)nvidia\s*(geforce)?\s*([gr]t[xs])?\s*[\d\w]+`)

// dateLayouts are tried after cast's ISO-style layouts
var dateLayouts = []string{
	"Jan 2, 2006",
	"2 Jan, 2006",
	"January 2, 2006",
	"Jan 2006",
	"2006-01",
	"2006",
}

// Price converts a minor-currency-unit price to major units
func Price(minor int64) float64 {
	return float64(minor) / 100
}

// RatingScore returns positive/(positive+negative). Titles without reviews
// have no score and return ErrUndefinedStatistic.
func RatingScore(positive, negative int64) (float64, error) {
	total := positive + negative
	if total <= 0 {
		return 0, fmt.Errorf("%w: rating score with %d total ratings", util.ErrUndefinedStatistic, total)
	}
	return float64(positive) / float64(total), nil
}

// SmoothedRating pulls score toward 0.5 by 2^(-log10(total+1)), so the
// adjustment fades as the number of ratings grows
func SmoothedRating(score float64, total int64) float64 {
	return score - (score-neutralRating)*math.Pow(2, -math.Log10(float64(total)+1))
}

// ReleaseYear extracts the 4-digit calendar year from a release date
func ReleaseYear(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", fmt.Errorf("%w: empty release date", util.ErrMalformedField)
	}

	t, err := cast.ToTimeE(date)
	if err != nil {
		for _, layout := range dateLayouts {
			if t, err = time.Parse(layout, date); err == nil {
				break
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: release date %q: %v", util.ErrMalformedField, date, err)
	}
	return t.Format("2006"), nil
}

// OwnersMidpoint converts an owners range "low-high" into floor((low+high)/2)
func OwnersMidpoint(s string) (int64, error) {
	lowRaw, highRaw, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, fmt.Errorf("%w: owners range %q has no '-' separator", util.ErrMalformedField, s)
	}

	low, err := parseBound(lowRaw)
	if err != nil {
		return 0, fmt.Errorf("%w: owners range %q: lower bound: %v", util.ErrMalformedField, s, err)
	}
	high, err := parseBound(highRaw)
	if err != nil {
		return 0, fmt.Errorf("%w: owners range %q: upper bound: %v", util.ErrMalformedField, s, err)
	}
	if low > high {
		return 0, fmt.Errorf("%w: owners range %q: lower bound exceeds upper bound", util.ErrMalformedField, s)
	}

	return (low + high) / 2, nil
}

func parseBound(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty bound")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%q is negative", s)
	}
	return v, nil
}

// CompanyName keeps the first entry of a semicolon-joined company list
func CompanyName(list string) string {
	first, _, _ := strings.Cut(list, ";")
	return norm.NFC.String(strings.TrimSpace(first))
}

// ParseGPU returns the first NVIDIA card mention in a recommended spec, or ""
func ParseGPU(spec string) string {
	return gpuPattern.FindString(spec)
}
