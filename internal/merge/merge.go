// Package merge joins the listing, snapshot and requirements tables on app ID.
package merge

import (
	"fmt"
	"strings"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/derive"
	"github.com/franz/storefront-insights/internal/util"
)

// maxReportedIDs caps how many offending app IDs an integrity error lists
const maxReportedIDs = 10

// Stats describes how many rows survived each join
type Stats struct {
	Listings         int
	AfterSnapshot    int
	AfterRequirement int
}

// Merge inner-joins listings with snapshots (price converted from minor
// units, replacing the listing price) and then with requirements (keeping
// only the recommended spec). Output follows listing order.
func Merge(listings []*dataset.Listing, snapshots []*dataset.Snapshot, reqs []*dataset.Requirement) ([]*dataset.Merged, *Stats, error) {
	prices := make(map[int64]*int64, len(snapshots))
	var dupes []int64
	for _, s := range snapshots {
		if _, seen := prices[s.AppID]; seen {
			dupes = append(dupes, s.AppID)
			continue
		}
		prices[s.AppID] = s.InitialPrice
	}
	if len(dupes) > 0 {
		return nil, nil, fmt.Errorf("%w: duplicate app IDs in snapshot: %s", util.ErrMergeIntegrity, formatIDs(dupes))
	}

	specs := make(map[int64]string, len(reqs))
	for _, r := range reqs {
		if _, seen := specs[r.AppID]; seen {
			dupes = append(dupes, r.AppID)
			continue
		}
		specs[r.AppID] = r.Recommended
	}
	if len(dupes) > 0 {
		return nil, nil, fmt.Errorf("%w: duplicate app IDs in requirements: %s", util.ErrMergeIntegrity, formatIDs(dupes))
	}

	stats := &Stats{Listings: len(listings)}
	merged := make([]*dataset.Merged, 0, len(listings))
	var missingPrice []int64

	for _, l := range listings {
		price, ok := prices[l.AppID]
		if !ok {
			continue
		}
		stats.AfterSnapshot++

		spec, ok := specs[l.AppID]
		if !ok {
			continue
		}
		stats.AfterRequirement++

		if price == nil {
			missingPrice = append(missingPrice, l.AppID)
			continue
		}

		merged = append(merged, &dataset.Merged{
			Listing:         *l,
			Price:           derive.Price(*price),
			RecommendedSpec: spec,
		})
	}

	if len(missingPrice) > 0 {
		return nil, nil, fmt.Errorf("%w: %d merged rows have no price: %s",
			util.ErrMergeIntegrity, len(missingPrice), formatIDs(missingPrice))
	}

	return merged, stats, nil
}

func formatIDs(ids []int64) string {
	parts := make([]string, 0, maxReportedIDs+1)
	for i, id := range ids {
		if i == maxReportedIDs {
			parts = append(parts, fmt.Sprintf("and %d more", len(ids)-maxReportedIDs))
			break
		}
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ", ")
}
