package store

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

// SaveResults writes every result row of a run in one transaction,
// replacing rows already stored for it
func (s *Store) SaveResults(ctx context.Context, runID string, res *Results) error {
	return s.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"company_scores", "tag_trends", "gpu_tiers"} {
			del := sqlbuilder.SQLite.NewDeleteBuilder()
			del.DeleteFrom(table)
			del.Where(del.Equal("run_id", runID))
			query, args := del.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		if err := insertCompanyScores(ctx, tx, runID, res.Companies); err != nil {
			return err
		}
		if err := insertTagTrends(ctx, tx, runID, res.Trends); err != nil {
			return err
		}
		return insertGPUTiers(ctx, tx, runID, res.Tiers)
	})
}

func insertCompanyScores(ctx context.Context, tx *sqlx.Tx, runID string, rows []CompanyScore) error {
	if len(rows) == 0 {
		return nil
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("company_scores")
	ib.Cols("run_id", "role", "rank", "name", "game_num", "avg_price", "avg_total_ratings",
		"avg_rating", "sum_owners", "score", "top_titles", "genre_counts")
	for _, r := range rows {
		ib.Values(runID, r.Role, r.Rank, r.Name, r.GameNum, r.AvgPrice, r.AvgTotalRatings,
			r.AvgRating, r.SumOwners, r.Score, orDefault(r.TopTitles, "[]"), orDefault(r.GenreCounts, "{}"))
	}

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert company scores: %w", err)
	}
	return nil
}

func insertTagTrends(ctx context.Context, tx *sqlx.Tx, runID string, rows []TagTrend) error {
	if len(rows) == 0 {
		return nil
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("tag_trends")
	ib.Cols("run_id", "rank", "tag", "swing", "min_ratio", "min_year", "max_ratio", "max_year")
	for _, r := range rows {
		ib.Values(runID, r.Rank, r.Tag, r.Swing, r.MinRatio, r.MinYear, r.MaxRatio, r.MaxYear)
	}

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert tag trends: %w", err)
	}
	return nil
}

func insertGPUTiers(ctx context.Context, tx *sqlx.Tx, runID string, rows []GPUTier) error {
	if len(rows) == 0 {
		return nil
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("gpu_tiers")
	ib.Cols("run_id", "position", "label", "owners", "major", "minor", "grp", "legacy")
	for _, r := range rows {
		ib.Values(runID, r.Position, r.Label, r.Owners, r.Major, r.Minor, r.Grp, r.Legacy)
	}

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert gpu tiers: %w", err)
	}
	return nil
}

// CompanyScores returns a run's ranking for one role in rank order
func (s *Store) CompanyScores(ctx context.Context, runID, role string) ([]CompanyScore, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("run_id", "role", "rank", "name", "game_num", "avg_price", "avg_total_ratings",
		"avg_rating", "sum_owners", "score", "top_titles", "genre_counts")
	sb.From("company_scores")
	sb.Where(sb.Equal("run_id", runID), sb.Equal("role", role))
	sb.OrderBy("rank")

	query, args := sb.Build()
	var rows []CompanyScore
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query company scores: %w", err)
	}
	return rows, nil
}

// TagTrends returns a run's changed tags in rank order
func (s *Store) TagTrends(ctx context.Context, runID string) ([]TagTrend, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("run_id", "rank", "tag", "swing", "min_ratio", "min_year", "max_ratio", "max_year")
	sb.From("tag_trends")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("rank")

	query, args := sb.Build()
	var rows []TagTrend
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query tag trends: %w", err)
	}
	return rows, nil
}

// GPUTiers returns a run's graphics card buckets in display order
func (s *Store) GPUTiers(ctx context.Context, runID string) ([]GPUTier, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("run_id", "position", "label", "owners", "major", "minor", "grp", "legacy")
	sb.From("gpu_tiers")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("position")

	query, args := sb.Build()
	var rows []GPUTier
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query gpu tiers: %w", err)
	}
	return rows, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
