package derive

import (
	"context"
	"testing"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func merged(id int64, categories, genres, tags string, pos, neg int64) *dataset.Merged {
	return &dataset.Merged{
		Listing: dataset.Listing{
			AppID:           id,
			Name:            "Game",
			ReleaseDate:     "2015-06-01",
			Developer:       "Dev A;Dev B",
			Publisher:       "Pub A",
			Categories:      categories,
			Genres:          genres,
			SteamspyTags:    tags,
			PositiveRatings: pos,
			NegativeRatings: neg,
			Owners:          "20000-50000",
		},
		Price:           9.99,
		RecommendedSpec: "NVIDIA GeForce GTX 970",
	}
}

// fullCoverage returns rows that together set every default flag
func fullCoverage() []*dataset.Merged {
	return []*dataset.Merged{
		merged(1, "Single-player;Steam Achievements", "Action;Adventure;Casual;Indie", "FPS;Action", 90, 10),
		merged(2, "Multi-player;Online Multi-Player", "Racing;RPG;Simulation;Sports;Strategy", "Racing", 10, 30),
	}
}

func TestDefaultFlagRulesSources(t *testing.T) {
	rules := DefaultFlagRules()
	require.Len(t, rules, 12)

	sources := map[string]Source{}
	for _, r := range rules {
		sources[r.Name] = r.Source
	}
	assert.Equal(t, SourceCategories, sources["Single-player"])
	assert.Equal(t, SourceCategories, sources["Multi-player"])
	assert.Equal(t, SourceTags, sources["FPS"])
	for _, g := range []string{"Action", "Adventure", "Casual", "Indie", "Racing", "RPG", "Simulation", "Sports", "Strategy"} {
		assert.Equal(t, SourceGenres, sources[g], g)
	}
}

func TestFlagMatching(t *testing.T) {
	rules := DefaultFlagRules()

	l := &dataset.Listing{
		Categories:   "Steam Cloud;Single-player;Partial Controller Support",
		Genres:       "Action;Free to Play",
		SteamspyTags: "FPS;Shooter",
	}
	flags := EncodeFlags(rules, l)
	assert.True(t, flags["Single-player"])
	assert.False(t, flags["Multi-player"])
	assert.True(t, flags["Action"])
	assert.True(t, flags["FPS"])
	assert.False(t, flags["RPG"])

	t.Run("case-sensitive", func(t *testing.T) {
		flags := EncodeFlags(rules, &dataset.Listing{Categories: "single-player", Genres: "action"})
		assert.False(t, flags["Single-player"])
		assert.False(t, flags["Action"])
	})

	t.Run("FPS ignores the genre column", func(t *testing.T) {
		flags := EncodeFlags(rules, &dataset.Listing{Genres: "FPS", SteamspyTags: "Shooter"})
		assert.False(t, flags["FPS"])
	})

	t.Run("genres ignore the tag column", func(t *testing.T) {
		flags := EncodeFlags(rules, &dataset.Listing{Genres: "Indie", SteamspyTags: "Action"})
		assert.False(t, flags["Action"])
		assert.True(t, flags["Indie"])
	})
}

func TestDerive(t *testing.T) {
	d := New(&Config{})
	games, result, err := d.Derive(context.Background(), fullCoverage())
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, 2, result.Derived)
	assert.Empty(t, result.Excluded)

	g := games[0]
	assert.Equal(t, "Dev A", g.Developer)
	assert.Equal(t, "Pub A", g.Publisher)
	assert.Equal(t, "2015", g.ReleaseYear)
	assert.Equal(t, int64(35000), g.Owners)
	assert.Equal(t, int64(100), g.TotalRatings)
	assert.InDelta(t, 0.9, g.RatingScore, 1e-12)
	assert.InDelta(t, SmoothedRating(0.9, 100), g.Rating, 1e-12)
	assert.Equal(t, "NVIDIA GeForce GTX 970", g.GPU)
	assert.InDelta(t, 9.99, g.Price, 1e-12)
	assert.Equal(t, 1, g.Flag("FPS"))
	assert.Equal(t, 0, g.Flag("Racing"))
}

func TestDeriveZeroReviews(t *testing.T) {
	rows := append(fullCoverage(), merged(3, "Single-player", "Action", "", 0, 0))

	t.Run("exclude", func(t *testing.T) {
		games, result, err := New(&Config{ZeroReviews: ZeroReviewsExclude}).Derive(context.Background(), rows)
		require.NoError(t, err)
		assert.Len(t, games, 2)
		assert.Equal(t, []int64{3}, result.Excluded)
	})

	t.Run("neutral", func(t *testing.T) {
		games, result, err := New(&Config{ZeroReviews: ZeroReviewsNeutral}).Derive(context.Background(), rows)
		require.NoError(t, err)
		require.Len(t, games, 3)
		assert.Empty(t, result.Excluded)
		assert.Equal(t, 0.5, games[2].RatingScore)
		assert.Equal(t, 0.5, games[2].Rating)
		assert.Equal(t, int64(0), games[2].TotalRatings)
	})
}

func TestDeriveFaults(t *testing.T) {
	t.Run("malformed owners aborts with app id", func(t *testing.T) {
		rows := fullCoverage()
		rows[1].Owners = "lots"
		_, _, err := New(&Config{}).Derive(context.Background(), rows)
		require.ErrorIs(t, err, util.ErrMalformedField)
		assert.Contains(t, err.Error(), "app 2")
	})

	t.Run("malformed date on an unrated title still aborts", func(t *testing.T) {
		rows := append(fullCoverage(), merged(3, "", "", "", 0, 0))
		rows[2].ReleaseDate = "TBA"
		_, _, err := New(&Config{}).Derive(context.Background(), rows)
		require.ErrorIs(t, err, util.ErrMalformedField)
	})

	t.Run("vocabulary coverage", func(t *testing.T) {
		rows := fullCoverage()[:1]
		_, _, err := New(&Config{}).Derive(context.Background(), rows)
		require.ErrorIs(t, err, util.ErrVocabularyCoverage)
		assert.Contains(t, err.Error(), "Multi-player")
		assert.Contains(t, err.Error(), "Strategy")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := New(&Config{}).Derive(ctx, fullCoverage())
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseZeroReviewPolicy(t *testing.T) {
	p, err := ParseZeroReviewPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ZeroReviewsExclude, p)

	p, err = ParseZeroReviewPolicy("neutral")
	require.NoError(t, err)
	assert.Equal(t, ZeroReviewsNeutral, p)

	_, err = ParseZeroReviewPolicy("zero")
	require.ErrorIs(t, err, util.ErrInvalidConfig)
}
