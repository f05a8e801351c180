package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/franz/storefront-insights/internal/util"
	"github.com/huandu/go-sqlbuilder"
)

var runColumns = []string{
	"id", "started_at", "finished_at", "status", "error", "source",
	"zero_reviews", "trend_from", "trend_to", "listings", "merged",
	"games", "excluded", "report_path",
}

// CreateRun records the start of a run
func (s *Store) CreateRun(ctx context.Context, r *Run) error {
	if r.Status == "" {
		r.Status = RunRunning
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("runs")
	ib.Cols("id", "started_at", "status", "source", "zero_reviews", "trend_from", "trend_to")
	ib.Values(r.ID, r.StartedAt, r.Status, r.Source, r.ZeroReviews, r.TrendFrom, r.TrendTo)

	query, args := ib.Build()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stores the final status, counts and report path of a run
func (s *Store) FinishRun(ctx context.Context, r *Run) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("runs")
	ub.Set(
		ub.Assign("finished_at", r.FinishedAt),
		ub.Assign("status", r.Status),
		ub.Assign("error", r.Error),
		ub.Assign("listings", r.Listings),
		ub.Assign("merged", r.Merged),
		ub.Assign("games", r.Games),
		ub.Assign("excluded", r.Excluded),
		ub.Assign("report_path", r.ReportPath),
	)
	ub.Where(ub.Equal("id", r.ID))

	query, args := ub.Build()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: run %s", util.ErrNotFound, r.ID)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(runColumns...)
	sb.From("runs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var r Run
	if err := s.db.GetContext(ctx, &r, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: run %s", util.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// LatestRun returns the most recent successful run
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(runColumns...)
	sb.From("runs")
	sb.Where(sb.Equal("status", RunSucceeded))
	sb.OrderBy("started_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var r Run
	if err := s.db.GetContext(ctx, &r, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no successful runs", util.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &r, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(runColumns...)
	sb.From("runs")
	sb.OrderBy("started_at DESC")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	var runs []*Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// CountRunsByStatus returns the number of runs with a given status
func (s *Store) CountRunsByStatus(ctx context.Context, status string) (int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("runs")
	sb.Where(sb.Equal("status", status))

	query, args := sb.Build()
	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}
