package analysis

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/derive"
	"github.com/franz/storefront-insights/internal/gpu"
	"github.com/franz/storefront-insights/internal/merge"
	"github.com/franz/storefront-insights/internal/report"
	"github.com/franz/storefront-insights/internal/score"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/franz/storefront-insights/internal/tags"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/google/uuid"
)

// Result holds everything one analysis produced
type Result struct {
	RunID string

	Tables     *dataset.Tables
	MergeStats *merge.Stats
	Derive     *derive.Result
	Games      []*dataset.Game

	Developers *score.Ranking
	Publishers *score.Ranking

	Ratios       *tags.RatioTable // nil without a tag matrix
	Trends       []tags.Swing
	Distribution []tags.YearScores

	Tiers []gpu.Tier

	MarkdownPath string
	WorkbookPath string
	Duration     time.Duration

	merged []*dataset.Merged
}

// Runner drives the pipeline
type Runner struct {
	cfg    *Config
	db     *store.Store
	logger *report.EventLogger
}

// New validates cfg and creates a Runner. db may be nil, in which case
// Run does not persist anything.
func New(cfg *Config, db *store.Store, logger *report.EventLogger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, db: db, logger: logger}, nil
}

// Stages selects the consumers run after derivation. Each consumer only
// reads the derived games, so a fault in one does not stop the others
// from being computed when they run alone.
type Stages struct {
	Companies bool
	Trends    bool
	GPU       bool
}

// AllStages runs every consumer
var AllStages = Stages{Companies: true, Trends: true, GPU: true}

// Analyze loads, merges and derives the inputs, then runs the selected
// consumers in memory and returns the combined result
func (r *Runner) Analyze(ctx context.Context, stages Stages) (*Result, error) {
	start := time.Now()
	res := &Result{}

	steps := []func(context.Context, *Result) error{
		func(ctx context.Context, res *Result) error { return r.loadTables(ctx, res, stages.Trends) },
		r.mergeTables,
		r.deriveGames,
	}
	if stages.Companies {
		steps = append(steps, r.rankCompanies)
	}
	if stages.Trends {
		steps = append(steps, r.tagTrends)
	}
	if stages.GPU {
		steps = append(steps, r.gpuTiers)
	}

	for _, step := range steps {
		if err := step(ctx, res); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}

// Run analyses the inputs under a new run ID, persists the results and,
// when a report directory is configured, writes the Markdown summary and
// the workbook. A report that cannot be written is logged as a warning;
// the run stays succeeded with an empty report path.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.db == nil {
		return nil, fmt.Errorf("%w: no database configured", util.ErrInvalidConfig)
	}

	run := &store.Run{
		ID:          uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		Source:      filepath.Dir(r.cfg.ListingsPath),
		ZeroReviews: r.cfg.ZeroReviews,
		TrendFrom:   r.cfg.TrendFrom,
		TrendTo:     r.cfg.TrendTo,
	}
	if err := r.db.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	r.logger.SetRunID(run.ID)
	r.logger.LogRun("start", 0)
	util.InfoLog("Run %s started", run.ID)

	res, err := r.Analyze(ctx, AllStages)
	if err == nil {
		res.RunID = run.ID
		fillCounts(run, res)
		err = r.db.SaveResults(ctx, run.ID, StoreResults(res))
	}
	if err != nil {
		r.fail(run, err)
		return nil, err
	}

	run.Status = store.RunSucceeded
	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err := r.db.FinishRun(ctx, run); err != nil {
		return nil, err
	}

	if r.cfg.ReportDir != "" {
		dir := filepath.Join(r.cfg.ReportDir, run.StartedAt.Format("20060102-150405"))
		// the results are stored; a report can be rendered later with WriteReports
		md, xlsx, err := WriteReports(ctx, r.db, run.ID, dir, r.logger.Path())
		if err != nil {
			util.WarnLog("Run %s succeeded but its reports could not be written: %v", run.ID, err)
			r.logger.LogError(report.EventRun, 0, fmt.Errorf("write reports: %w", err))
		} else {
			res.MarkdownPath, res.WorkbookPath = md, xlsx
			run.ReportPath = md
			if err := r.db.FinishRun(ctx, run); err != nil {
				return nil, err
			}
		}
	}

	r.logger.LogRun("done", res.Duration)
	util.SuccessLog("Run %s finished in %s", run.ID, res.Duration.Round(time.Millisecond))
	return res, nil
}

// fail records a failed run; the original error is what the caller sees
func (r *Runner) fail(run *store.Run, cause error) {
	run.Status = store.RunFailed
	run.Error = cause.Error()
	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	// the run context may already be cancelled
	if err := r.db.FinishRun(context.Background(), run); err != nil {
		util.WarnLog("Failed to record failed run %s: %v", run.ID, err)
	}
	r.logger.LogError(report.EventRun, 0, cause)
}

func fillCounts(run *store.Run, res *Result) {
	if res.MergeStats != nil {
		run.Listings = res.MergeStats.Listings
		run.Merged = res.MergeStats.AfterRequirement
	}
	run.Games = len(res.Games)
	if res.Derive != nil {
		run.Excluded = len(res.Derive.Excluded)
	}
}

// WriteReports renders a stored run as Markdown and XLSX under dir
func WriteReports(ctx context.Context, db *store.Store, runID, dir, eventLogPath string) (string, string, error) {
	summary, err := report.GenerateSummaryReport(ctx, db, runID, eventLogPath)
	if err != nil {
		return "", "", err
	}

	mdPath := filepath.Join(dir, "summary.md")
	if err := report.WriteMarkdownReport(summary, mdPath); err != nil {
		return "", "", err
	}

	xlsxPath := filepath.Join(dir, "insights.xlsx")
	if err := report.WriteWorkbook(summary, xlsxPath); err != nil {
		return "", "", err
	}

	util.InfoLog("Reports written to %s", dir)
	return mdPath, xlsxPath, nil
}

// loadTables reads the input tables; the tag matrix only when withTags
func (r *Runner) loadTables(ctx context.Context, res *Result, withTags bool) error {
	start := time.Now()
	tagsPath := ""
	if withTags {
		tagsPath = r.cfg.TagsPath
	}
	loader := dataset.NewLoader(&dataset.Config{
		Paths: dataset.Paths{
			Listings:     r.cfg.ListingsPath,
			Snapshots:    r.cfg.SnapshotsPath,
			Requirements: r.cfg.RequirementsPath,
			Tags:         tagsPath,
		},
		Retry: r.cfg.Retry,
	})

	tables, err := loader.LoadAll(ctx)
	if err != nil {
		r.logger.LogError(report.EventLoad, 0, err)
		return fmt.Errorf("load: %w", err)
	}
	elapsed := time.Since(start)

	r.logger.LogLoad("listings", r.cfg.ListingsPath, len(tables.Listings), elapsed)
	r.logger.LogLoad("snapshots", r.cfg.SnapshotsPath, len(tables.Snapshots), elapsed)
	r.logger.LogLoad("requirements", r.cfg.RequirementsPath, len(tables.Requirements), elapsed)
	if tables.Tags != nil {
		r.logger.LogLoad("tags", tagsPath, len(tables.Tags.AppIDs), elapsed)
	}

	util.InfoLog("Loaded %s listings in %s", util.FormatCount(int64(len(tables.Listings))), elapsed.Round(time.Millisecond))
	res.Tables = tables
	return nil
}

func (r *Runner) mergeTables(ctx context.Context, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := res.Tables
	merged, stats, err := merge.Merge(t.Listings, t.Snapshots, t.Requirements)
	if err != nil {
		r.logger.LogError(report.EventMerge, 0, err)
		return fmt.Errorf("merge: %w", err)
	}
	r.logger.LogMerge(stats.Listings, stats.AfterSnapshot, stats.AfterRequirement)

	res.MergeStats = stats
	res.merged = merged
	return nil
}

func (r *Runner) deriveGames(ctx context.Context, res *Result) error {
	policy, err := derive.ParseZeroReviewPolicy(r.cfg.ZeroReviews)
	if err != nil {
		return err
	}

	d := derive.New(&derive.Config{ZeroReviews: policy, Logger: r.logger})
	games, dres, err := d.Derive(ctx, res.merged)
	res.merged = nil
	if err != nil {
		return fmt.Errorf("derive: %w", err)
	}
	r.logger.LogDerive(dres.Derived, len(dres.Excluded), dres.Duration)

	res.Games = games
	res.Derive = dres
	return nil
}

func (r *Runner) rankCompanies(ctx context.Context, res *Result) error {
	s := score.New(&score.Config{
		Options: score.Options{
			Limit:      r.cfg.Limit,
			TitleLimit: r.cfg.TitleLimit,
			Strict:     r.cfg.Strict,
		},
		Logger: r.logger,
	})

	var err error
	if res.Developers, err = s.Score(ctx, res.Games, dataset.RoleDeveloper); err != nil {
		return err
	}
	if res.Publishers, err = s.Score(ctx, res.Games, dataset.RolePublisher); err != nil {
		return err
	}
	return nil
}

func (r *Runner) tagTrends(ctx context.Context, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if res.Tables.Tags == nil {
		util.WarnLog("No tag matrix configured; skipping tag trends")
		return nil
	}

	mem := tags.Binarize(res.Tables.Tags)
	table, err := tags.YearRatios(res.Games, mem)
	if err != nil {
		r.logger.LogError(report.EventTrend, 0, err)
		return fmt.Errorf("tag ratios: %w", err)
	}

	swings, err := tags.ChangedTags(table, r.cfg.TrendFrom, r.cfg.TrendTo, r.cfg.TrendCount)
	if err != nil {
		r.logger.LogError(report.EventTrend, 0, err)
		return fmt.Errorf("changed tags: %w", err)
	}
	for _, s := range swings {
		r.logger.LogTrend(s.Tag, s.Swing, s.MinYear, s.MaxYear)
	}

	if r.cfg.DistributionTag != "" {
		dist, err := tags.ScoreDistribution(res.Games, mem, r.cfg.DistributionTag, r.cfg.TrendFrom, r.cfg.TrendTo)
		if err != nil {
			return fmt.Errorf("score distribution: %w", err)
		}
		res.Distribution = dist
	}

	util.InfoLog("Ranked %d tags over %d-%d", len(swings), r.cfg.TrendFrom, r.cfg.TrendTo)
	res.Ratios = table
	res.Trends = swings
	return nil
}

func (r *Runner) gpuTiers(ctx context.Context, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	samples := make([]gpu.Sample, 0, len(res.Games))
	for _, g := range res.Games {
		if g.GPU != "" {
			samples = append(samples, gpu.Sample{GPU: g.GPU, Owners: g.Owners})
		}
	}

	res.Tiers = gpu.Classify(samples, r.cfg.GPULimit)
	for _, t := range res.Tiers {
		r.logger.LogGPU(t.Label, t.Owners, t.Major, t.Minor)
	}

	util.InfoLog("Bucketed %d GPU mentions into %d tiers", len(samples), len(res.Tiers))
	return nil
}
