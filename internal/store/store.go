package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 2
)

// Store holds the analysis run history
type Store struct {
	db *sqlx.DB
}

// OpenOptions holds options for opening a database
type OpenOptions struct {
	BulkWrite bool // Relax fsync and grow the page cache for large result writes
}

// Open opens or creates a SQLite database at the given path with default options
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens or creates a SQLite database with custom options
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with a single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if opts.BulkWrite {
		if err := store.applyBulkPragmas(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply bulk pragmas: %w", err)
		}
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) applyBulkPragmas() error {
	pragmas := []string{
		// NORMAL is safe with WAL; fsync happens at checkpoints only
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		// Negative value = KB
		"PRAGMA cache_size = -64000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// SQLiteVersion returns the SQLite version string
func SQLiteVersion() string {
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	if err := db.Get(&version, "SELECT sqlite_version()"); err != nil {
		return ""
	}
	return version
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity() error {
	var result string
	if err := s.db.Get(&result, "PRAGMA integrity_check"); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// v2: lookup indexes
	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.Get(&exists, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	if err := s.db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, err
	}

	return version, nil
}

func setSchemaVersion(tx *sqlx.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Run status values
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one analysis run
type Run struct {
	ID          string       `db:"id"`
	StartedAt   time.Time    `db:"started_at"`
	FinishedAt  sql.NullTime `db:"finished_at"`
	Status      string       `db:"status"`
	Error       string       `db:"error"`
	Source      string       `db:"source"`
	ZeroReviews string       `db:"zero_reviews"`
	TrendFrom   int          `db:"trend_from"`
	TrendTo     int          `db:"trend_to"`
	Listings    int          `db:"listings"`
	Merged      int          `db:"merged"`
	Games       int          `db:"games"`
	Excluded    int          `db:"excluded"`
	ReportPath  string       `db:"report_path"`
}

// Duration returns how long a finished run took
func (r *Run) Duration() time.Duration {
	if !r.FinishedAt.Valid {
		return 0
	}
	return r.FinishedAt.Time.Sub(r.StartedAt)
}

// CompanyScore is one ranked developer or publisher of a run
type CompanyScore struct {
	RunID           string  `db:"run_id"`
	Role            string  `db:"role"`
	Rank            int     `db:"rank"`
	Name            string  `db:"name"`
	GameNum         int     `db:"game_num"`
	AvgPrice        float64 `db:"avg_price"`
	AvgTotalRatings float64 `db:"avg_total_ratings"`
	AvgRating       float64 `db:"avg_rating"`
	SumOwners       int64   `db:"sum_owners"`
	Score           float64 `db:"score"`
	TopTitles       string  `db:"top_titles"`   // JSON array
	GenreCounts     string  `db:"genre_counts"` // JSON object
}

// TagTrend is one changed tag of a run
type TagTrend struct {
	RunID    string  `db:"run_id"`
	Rank     int     `db:"rank"`
	Tag      string  `db:"tag"`
	Swing    float64 `db:"swing"`
	MinRatio float64 `db:"min_ratio"`
	MinYear  int     `db:"min_year"`
	MaxRatio float64 `db:"max_ratio"`
	MaxYear  int     `db:"max_year"`
}

// GPUTier is one graphics card bucket of a run
type GPUTier struct {
	RunID    string `db:"run_id"`
	Position int    `db:"position"`
	Label    string `db:"label"`
	Owners   int64  `db:"owners"`
	Major    int    `db:"major"`
	Minor    int    `db:"minor"`
	Grp      int    `db:"grp"`
	Legacy   bool   `db:"legacy"`
}

// Results groups everything persisted for one run
type Results struct {
	Companies []CompanyScore
	Trends    []TagTrend
	Tiers     []GPUTier
}
