// Package dataset holds the raw storefront tables, the enriched game record
// and the CSV loader that reads them.
package dataset

// Listing is one row of the listing metadata table (steam.csv)
type Listing struct {
	AppID           int64
	Name            string
	ReleaseDate     string
	Developer       string // semicolon-joined
	Publisher       string // semicolon-joined
	Categories      string
	Genres          string
	SteamspyTags    string
	PositiveRatings int64
	NegativeRatings int64
	Owners          string // "low-high"
}

// Snapshot is one row of the ownership/pricing snapshot (steamspy_data.csv)
type Snapshot struct {
	AppID int64
	// InitialPrice is in minor currency units; nil when the cell is empty
	InitialPrice *int64
}

// Requirement is one row of the system requirements table
type Requirement struct {
	AppID       int64
	Recommended string
}

// TagMatrix is the tag-strength table: one row per game, one column per tag
type TagMatrix struct {
	Tags     []string
	AppIDs   []int64
	Strength [][]float64
}

// Merged is a listing joined with its snapshot price and recommended spec
type Merged struct {
	Listing
	// Price is the snapshot initial price in major units
	Price           float64
	RecommendedSpec string
}

// Game is the enriched record produced by the field deriver
type Game struct {
	AppID           int64
	Name            string
	Developer       string
	Publisher       string
	ReleaseDate     string
	ReleaseYear     string
	Price           float64
	Owners          int64
	PositiveRatings int64
	NegativeRatings int64
	TotalRatings    int64
	RatingScore     float64
	Rating          float64
	RecommendedSpec string
	GPU             string
	Flags           map[string]bool
}

// Flag returns 1 if the named category/genre flag is set, else 0
func (g *Game) Flag(name string) int {
	if g.Flags[name] {
		return 1
	}
	return 0
}

// Company returns the developer or publisher depending on role
func (g *Game) Company(role Role) string {
	if role == RolePublisher {
		return g.Publisher
	}
	return g.Developer
}

// Tables bundles the four raw inputs of an analysis run
type Tables struct {
	Listings     []*Listing
	Snapshots    []*Snapshot
	Requirements []*Requirement
	Tags         *TagMatrix
}
