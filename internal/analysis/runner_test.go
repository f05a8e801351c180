package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/report"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingsCSV = `appid,name,release_date,developer,publisher,categories,genres,steamspy_tags,positive_ratings,negative_ratings,owners,price
1,Alpha One,2010-05-01,Alpha Dev,Big Pub,Single-player,Action;Adventure;Indie,Action;FPS,900,100,1000000-2000000,9.99
2,Alpha Two,2012-03-01,Alpha Dev;Porter,Big Pub,Single-player;Multi-player,Casual;Racing;RPG,Casual,450,50,200000-500000,4.99
3,Beta Game,2012-08-01,Beta Dev,Small Pub,Multi-player,Simulation;Sports;Strategy,Strategy,60,40,20000-50000,0
4,Gamma Game,2015-01-01,Gamma Dev,Small Pub,Single-player,Indie,Indie,30,30,0-20000,1.99
5,Silent,2015-02-02,Gamma Dev,Small Pub,Single-player,Indie,Indie,0,0,0-20000,0.99
`

const snapshotCSV = `appid,initialprice
1,999
2,499
3,0
4,199
5,99
`

const requirementsCSV = `steam_appid,recommended
1,"Windows 7, NVIDIA GeForce GTX 970"
2,"NVIDIA GeForce GTX 660 or better"
3,"nvidia gtx 970"
4,
5,
`

const tagsCSV = `appid,indie,strategy,fps
1,10,0,8
2,0,0,0
3,1,9,0
4,5,0,0
5,5,5,5
`

func writeInputs(t *testing.T, snapshot string) *Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}

	cfg := DefaultConfig()
	cfg.ListingsPath = write("steam.csv", listingsCSV)
	cfg.SnapshotsPath = write("steamspy_data.csv", snapshot)
	cfg.RequirementsPath = write("steam_requirements_data.csv", requirementsCSV)
	cfg.TagsPath = write("steamspy_tag_data.csv", tagsCSV)
	return cfg
}

func TestAnalyze(t *testing.T) {
	cfg := writeInputs(t, snapshotCSV)
	cfg.DistributionTag = "indie"

	runner, err := New(cfg, nil, nil)
	require.NoError(t, err)

	res, err := runner.Analyze(context.Background(), AllStages)
	require.NoError(t, err)

	assert.Equal(t, 5, res.MergeStats.AfterRequirement)
	assert.Len(t, res.Games, 4)
	assert.Equal(t, []int64{5}, res.Derive.Excluded)

	require.Len(t, res.Developers.Top, 3)
	assert.Equal(t, "Alpha Dev", res.Developers.Top[0].Name)
	assert.Equal(t, "Beta Dev", res.Developers.Top[1].Name)
	assert.Equal(t, "Gamma Dev", res.Developers.Top[2].Name)
	assert.Equal(t, []string{"Alpha One", "Alpha Two"}, res.Developers.Top[0].TopTitles)
	assert.Equal(t, 1, res.Developers.Top[0].GenreCounts["FPS"])
	assert.Len(t, res.Publishers.Top, 2)

	require.Len(t, res.Trends, 3)
	assert.Equal(t, "indie", res.Trends[0].Tag)
	assert.Equal(t, 0.75, res.Trends[0].Swing)
	assert.Equal(t, 2012, res.Trends[0].MinYear)
	assert.Equal(t, 2015, res.Trends[0].MaxYear)
	assert.Equal(t, "strategy", res.Trends[1].Tag)
	assert.Equal(t, "fps", res.Trends[2].Tag)

	require.Len(t, res.Distribution, 3)
	assert.Equal(t, 2010, res.Distribution[0].Year)

	require.Len(t, res.Tiers, 2)
	assert.Equal(t, " 660", res.Tiers[0].Label)
	assert.Equal(t, int64(350000), res.Tiers[0].Owners)
	assert.Equal(t, " 970", res.Tiers[1].Label)
	assert.Equal(t, int64(1535000), res.Tiers[1].Owners)
}

func TestAnalyzeWithoutTags(t *testing.T) {
	cfg := writeInputs(t, snapshotCSV)
	cfg.TagsPath = ""

	runner, err := New(cfg, nil, nil)
	require.NoError(t, err)

	res, err := runner.Analyze(context.Background(), AllStages)
	require.NoError(t, err)
	assert.Nil(t, res.Ratios)
	assert.Empty(t, res.Trends)
	assert.NotEmpty(t, res.Tiers)
}

func TestAnalyzeNeutralPolicyKeepsSilentTitles(t *testing.T) {
	cfg := writeInputs(t, snapshotCSV)
	cfg.ZeroReviews = "neutral"

	runner, err := New(cfg, nil, nil)
	require.NoError(t, err)

	res, err := runner.Analyze(context.Background(), AllStages)
	require.NoError(t, err)
	assert.Len(t, res.Games, 5)
	assert.Empty(t, res.Derive.Excluded)
}

func TestAnalyzeMergeIntegrity(t *testing.T) {
	cfg := writeInputs(t, strings.Replace(snapshotCSV, "3,0\n", "3,\n", 1))

	runner, err := New(cfg, nil, nil)
	require.NoError(t, err)

	_, err = runner.Analyze(context.Background(), AllStages)
	assert.ErrorIs(t, err, util.ErrMergeIntegrity)
}

func TestAnalyzeCancelled(t *testing.T) {
	runner, err := New(writeInputs(t, snapshotCSV), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner.Analyze(ctx, AllStages)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeStagesAreIndependent(t *testing.T) {
	cfg := writeInputs(t, snapshotCSV)
	cfg.TrendFrom, cfg.TrendTo = 2016, 2018 // no release years in the window

	runner, err := New(cfg, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("companies only", func(t *testing.T) {
		res, err := runner.Analyze(ctx, Stages{Companies: true})
		require.NoError(t, err)
		require.Len(t, res.Developers.Top, 3)
		assert.Equal(t, "Alpha Dev", res.Developers.Top[0].Name)
		assert.Nil(t, res.Tables.Tags, "tag matrix is not loaded")
		assert.Empty(t, res.Trends)
		assert.Empty(t, res.Tiers)
	})

	t.Run("gpu only", func(t *testing.T) {
		res, err := runner.Analyze(ctx, Stages{GPU: true})
		require.NoError(t, err)
		require.Len(t, res.Tiers, 2)
		assert.Nil(t, res.Developers)
	})

	t.Run("trend fault stays fatal for trends", func(t *testing.T) {
		_, err := runner.Analyze(ctx, Stages{Trends: true})
		assert.ErrorIs(t, err, util.ErrUndefinedStatistic)

		_, err = runner.Analyze(ctx, AllStages)
		assert.ErrorIs(t, err, util.ErrUndefinedStatistic)
	})
}

func TestAnalyzeUnknownDistributionTagOnlyFailsTrends(t *testing.T) {
	cfg := writeInputs(t, snapshotCSV)
	cfg.DistributionTag = "nosuchtag"

	runner, err := New(cfg, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := runner.Analyze(ctx, Stages{Companies: true, GPU: true})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Developers.Top)
	assert.NotEmpty(t, res.Tiers)

	_, err = runner.Analyze(ctx, Stages{Trends: true})
	assert.ErrorIs(t, err, util.ErrInvalidArgument)
}

func TestRunSucceedsWhenReportsCannotBeWritten(t *testing.T) {
	ctx := context.Background()
	cfg := writeInputs(t, snapshotCSV)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg.ReportDir = blocker

	db, err := store.Open(filepath.Join(t.TempDir(), "sfi.db"))
	require.NoError(t, err)
	defer db.Close()

	runner, err := New(cfg, db, nil)
	require.NoError(t, err)

	res, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.MarkdownPath)

	run, err := db.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.RunSucceeded, run.Status)
	assert.Empty(t, run.ReportPath)

	devs, err := db.CompanyScores(ctx, res.RunID, string(dataset.RoleDeveloper))
	require.NoError(t, err)
	assert.Len(t, devs, 3)
}

func TestRunPersistsAndReports(t *testing.T) {
	ctx := context.Background()
	cfg := writeInputs(t, snapshotCSV)
	cfg.ReportDir = filepath.Join(t.TempDir(), "reports")

	db, err := store.Open(filepath.Join(t.TempDir(), "sfi.db"))
	require.NoError(t, err)
	defer db.Close()

	logger, err := report.NewEventLogger(t.TempDir(), report.LevelDebug)
	require.NoError(t, err)
	defer logger.Close()

	runner, err := New(cfg, db, logger)
	require.NoError(t, err)

	res, err := runner.Run(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	run, err := db.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.RunSucceeded, run.Status)
	assert.Equal(t, 5, run.Listings)
	assert.Equal(t, 4, run.Games)
	assert.Equal(t, 1, run.Excluded)
	assert.Equal(t, res.MarkdownPath, run.ReportPath)

	devs, err := db.CompanyScores(ctx, res.RunID, string(dataset.RoleDeveloper))
	require.NoError(t, err)
	require.Len(t, devs, 3)
	assert.Equal(t, "Alpha Dev", devs[0].Name)
	assert.Equal(t, []string{"Alpha One", "Alpha Two"}, report.DecodeTitles(devs[0].TopTitles))

	trends, err := db.TagTrends(ctx, res.RunID)
	require.NoError(t, err)
	assert.Len(t, trends, 3)

	md, err := os.ReadFile(res.MarkdownPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Alpha Dev")
	assert.FileExists(t, res.WorkbookPath)

	logger.Close()
	events, err := os.ReadFile(logger.Path())
	require.NoError(t, err)
	assert.Contains(t, string(events), res.RunID)
	assert.Contains(t, string(events), `"event":"company"`)
}

func TestRunRecordsFailure(t *testing.T) {
	ctx := context.Background()
	cfg := writeInputs(t, strings.Replace(snapshotCSV, "3,0\n", "3,\n", 1))

	db, err := store.Open(filepath.Join(t.TempDir(), "sfi.db"))
	require.NoError(t, err)
	defer db.Close()

	runner, err := New(cfg, db, nil)
	require.NoError(t, err)

	_, err = runner.Run(ctx)
	require.ErrorIs(t, err, util.ErrMergeIntegrity)

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "3")
}

func TestRunRequiresDatabase(t *testing.T) {
	runner, err := New(writeInputs(t, snapshotCSV), nil, nil)
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}
