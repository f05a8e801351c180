package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/franz/storefront-insights/internal/util"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
)

// Paths locates the four input tables
type Paths struct {
	Listings     string
	Snapshots    string
	Requirements string
	Tags         string
}

// Loader reads the raw CSV tables
type Loader struct {
	paths Paths
	retry *util.RetryConfig
}

// Config holds loader configuration
type Config struct {
	Paths Paths
	Retry *util.RetryConfig
}

// NewLoader creates a new Loader
func NewLoader(cfg *Config) *Loader {
	return &Loader{
		paths: cfg.Paths,
		retry: cfg.Retry,
	}
}

// LoadAll reads the four tables concurrently
func (l *Loader) LoadAll(ctx context.Context) (*Tables, error) {
	tables := &Tables{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := loadFile(ctx, l, l.paths.Listings, ReadListings)
		tables.Listings = rows
		return err
	})
	g.Go(func() error {
		rows, err := loadFile(ctx, l, l.paths.Snapshots, ReadSnapshots)
		tables.Snapshots = rows
		return err
	})
	g.Go(func() error {
		rows, err := loadFile(ctx, l, l.paths.Requirements, ReadRequirements)
		tables.Requirements = rows
		return err
	})
	if l.paths.Tags != "" {
		g.Go(func() error {
			m, err := loadFile(ctx, l, l.paths.Tags, ReadTagMatrix)
			tables.Tags = m
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	util.DebugLog("Loaded %d listings, %d snapshots, %d requirement rows",
		len(tables.Listings), len(tables.Snapshots), len(tables.Requirements))
	return tables, nil
}

func loadFile[T any](ctx context.Context, l *Loader, path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	if path == "" {
		return zero, fmt.Errorf("%w: input path is empty", util.ErrInvalidConfig)
	}

	f, err := util.RetryableOpen(ctx, path, l.retry)
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// Header columns each input table must carry
var (
	ListingColumns = []string{"appid", "name", "release_date", "developer", "publisher",
		"categories", "genres", "steamspy_tags", "positive_ratings", "negative_ratings", "owners"}
	SnapshotColumns    = []string{"appid", "initialprice"}
	RequirementColumns = []string{"steam_appid", "recommended"}
	TagMatrixColumns   = []string{"appid"}
)

// table is a CSV body addressed by header name
type table struct {
	header map[string]int
	rows   [][]string
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

func readHeader(cr *csv.Reader) (map[string]int, error) {
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty table", util.ErrMalformedField)
	}
	if err != nil {
		return nil, err
	}

	header := make(map[string]int, len(head))
	for i, name := range head {
		header[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return header, nil
}

func missing(header map[string]int, required []string) []string {
	var out []string
	for _, col := range required {
		if _, ok := header[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

// CheckHeader reads only the header row of r and returns the number of
// columns and the required ones it lacks
func CheckHeader(r io.Reader, required []string) (int, []string, error) {
	header, err := readHeader(newCSVReader(r))
	if err != nil {
		return 0, nil, err
	}
	return len(header), missing(header, required), nil
}

func readTable(r io.Reader, required ...string) (*table, error) {
	cr := newCSVReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if cols := missing(header, required); len(cols) > 0 {
		return nil, fmt.Errorf("%w: missing column %q", util.ErrMalformedField, cols[0])
	}

	t := &table{header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (t *table) get(row []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) int64At(line int, row []string, col string) (int64, error) {
	raw := t.get(row, col)
	v, err := parseInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d column %s: %q is not an integer", util.ErrMalformedField, line, col, raw)
	}
	return v, nil
}

// parseInt accepts "42" and the float rendering "42.0" that spreadsheet
// exports produce for integer columns
func parseInt(raw string) (int64, error) {
	if v, err := cast.ToInt64E(raw); err == nil && raw != "" {
		return v, nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || raw == "" || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int64(f), nil
}

// ReadListings parses the listing metadata table
func ReadListings(r io.Reader) ([]*Listing, error) {
	t, err := readTable(r, ListingColumns...)
	if err != nil {
		return nil, err
	}

	listings := make([]*Listing, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		l := &Listing{
			Name:         t.get(row, "name"),
			ReleaseDate:  t.get(row, "release_date"),
			Developer:    t.get(row, "developer"),
			Publisher:    t.get(row, "publisher"),
			Categories:   t.get(row, "categories"),
			Genres:       t.get(row, "genres"),
			SteamspyTags: t.get(row, "steamspy_tags"),
			Owners:       t.get(row, "owners"),
		}
		if l.AppID, err = t.int64At(line, row, "appid"); err != nil {
			return nil, err
		}
		if l.PositiveRatings, err = t.int64At(line, row, "positive_ratings"); err != nil {
			return nil, err
		}
		if l.NegativeRatings, err = t.int64At(line, row, "negative_ratings"); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// ReadSnapshots parses the ownership/pricing snapshot. Empty prices are kept
// as nil so the merger can report them.
func ReadSnapshots(r io.Reader) ([]*Snapshot, error) {
	t, err := readTable(r, SnapshotColumns...)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*Snapshot, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		s := &Snapshot{}
		if s.AppID, err = t.int64At(line, row, "appid"); err != nil {
			return nil, err
		}
		if raw := t.get(row, "initialprice"); raw != "" && !strings.EqualFold(raw, "nan") {
			price, err := t.int64At(line, row, "initialprice")
			if err != nil {
				return nil, err
			}
			s.InitialPrice = &price
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

// ReadRequirements parses the system requirements table, keeping only the
// recommended spec text
func ReadRequirements(r io.Reader) ([]*Requirement, error) {
	t, err := readTable(r, RequirementColumns...)
	if err != nil {
		return nil, err
	}

	reqs := make([]*Requirement, 0, len(t.rows))
	for i, row := range t.rows {
		req := &Requirement{Recommended: t.get(row, "recommended")}
		if req.AppID, err = t.int64At(i+2, row, "steam_appid"); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// ReadTagMatrix parses the tag-strength table. Every column except appid is a tag.
func ReadTagMatrix(r io.Reader) (*TagMatrix, error) {
	t, err := readTable(r, TagMatrixColumns...)
	if err != nil {
		return nil, err
	}

	m := &TagMatrix{}
	cols := make([]int, 0, len(t.header))
	names := make(map[int]string, len(t.header))
	for name, idx := range t.header {
		if name != "appid" {
			cols = append(cols, idx)
			names[idx] = name
		}
	}
	sort.Ints(cols)
	for _, idx := range cols {
		m.Tags = append(m.Tags, names[idx])
	}

	for i, row := range t.rows {
		line := i + 2
		id, err := t.int64At(line, row, "appid")
		if err != nil {
			return nil, err
		}
		strengths := make([]float64, len(cols))
		for j, idx := range cols {
			if idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
				continue
			}
			v, err := cast.ToFloat64E(strings.TrimSpace(row[idx]))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d tag %s: %q is not numeric",
					util.ErrMalformedField, line, m.Tags[j], row[idx])
			}
			strengths[j] = v
		}
		m.AppIDs = append(m.AppIDs, id)
		m.Strength = append(m.Strength, strengths)
	}
	return m, nil
}
