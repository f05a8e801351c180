package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCheckSQLite(t *testing.T) {
	result := checkSQLite()

	assert.False(t, result.error, result.message)
	assert.Contains(t, result.message, "version")
}

func TestCheckDatabase(t *testing.T) {
	ctx := context.Background()

	t.Run("non-existent", func(t *testing.T) {
		result := checkDatabase(ctx, filepath.Join(t.TempDir(), "nonexistent.db"))

		assert.False(t, result.error, result.message)
		assert.Contains(t, result.message, "will be created")
	})

	t.Run("existing", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")
		db, err := store.Open(dbPath)
		require.NoError(t, err)

		run := &store.Run{ID: "run-1", StartedAt: time.Now().UTC(), ZeroReviews: "exclude"}
		require.NoError(t, db.CreateRun(ctx, run))
		run.Status = store.RunSucceeded
		require.NoError(t, db.FinishRun(ctx, run))
		require.NoError(t, db.Close())

		result := checkDatabase(ctx, dbPath)

		assert.False(t, result.error, result.message)
		assert.False(t, result.warning, result.message)
		assert.Contains(t, result.message, "1 runs, 0 failed")
	})

	t.Run("empty path", func(t *testing.T) {
		result := checkDatabase(ctx, "")
		assert.True(t, result.warning)
	})

	t.Run("directory", func(t *testing.T) {
		result := checkDatabase(ctx, t.TempDir())
		assert.True(t, result.error)
	})
}

func TestCheckInputFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid header", func(t *testing.T) {
		path := writeFile(t, dir, "snapshots.csv", "appid,name,initialprice\n10,Counter-Strike,719\n")
		result := checkInputFile(inputCheck{label: "Snapshots", path: path, columns: dataset.SnapshotColumns})

		assert.False(t, result.error, result.message)
		assert.Contains(t, result.message, "3 columns")
	})

	t.Run("missing columns", func(t *testing.T) {
		path := writeFile(t, dir, "requirements.csv", "steam_appid,minimum\n10,x\n")
		result := checkInputFile(inputCheck{label: "Requirements", path: path, columns: dataset.RequirementColumns})

		assert.True(t, result.error)
		assert.Contains(t, result.message, "recommended")
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, dir, "empty.csv", "")
		result := checkInputFile(inputCheck{label: "Listings", path: path, columns: dataset.ListingColumns})
		assert.True(t, result.error)
	})

	t.Run("unreadable", func(t *testing.T) {
		result := checkInputFile(inputCheck{label: "Listings", path: filepath.Join(dir, "absent.csv"), columns: dataset.ListingColumns})
		assert.True(t, result.error)
	})

	t.Run("optional without path", func(t *testing.T) {
		result := checkInputFile(inputCheck{label: "Tag matrix", optional: true})

		assert.False(t, result.error)
		assert.True(t, result.warning)
	})

	t.Run("required without path", func(t *testing.T) {
		result := checkInputFile(inputCheck{label: "Listings"})
		assert.True(t, result.error)
	})
}

func TestCheckOutputDirectory(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		result := checkOutputDirectory(t.TempDir())

		assert.False(t, result.error, result.message)
		assert.Contains(t, result.message, "writable")
	})

	t.Run("created", func(t *testing.T) {
		newDir := filepath.Join(t.TempDir(), "reports", "nested")
		result := checkOutputDirectory(newDir)

		assert.False(t, result.error, result.message)
		assert.DirExists(t, newDir)
	})

	t.Run("file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "file.txt", "test")
		result := checkOutputDirectory(path)
		assert.True(t, result.error)
	})
}

func TestCheckDiskSpace(t *testing.T) {
	result := checkDiskSpace(t.TempDir(), "test")

	assert.False(t, result.error)
	assert.Contains(t, result.message, "available")
}

func TestCheckDiskSpace_NonExistent(t *testing.T) {
	result := checkDiskSpace("/nonexistent/path", "test")

	assert.True(t, result.warning)
	assert.False(t, result.error)
}
