package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	db := openTestStore(t)
	runID := setupTestRun(t, db)

	report, err := GenerateSummaryReport(context.Background(), db, runID, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "insights.xlsx")
	require.NoError(t, WriteWorkbook(report, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetDevelopers, SheetPublishers, SheetTrends, SheetGPU}, f.GetSheetList())

	rows, err := f.GetRows(SheetDevelopers)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0][1])
	assert.Equal(t, "Valve", rows[1][1])
	assert.Equal(t, "Portal 2; Half-Life 2", rows[1][8])

	// genre columns follow the header order; Action is the first genre
	assert.Equal(t, "Action", rows[0][9])
	assert.Equal(t, "12", rows[1][9])

	rows, err = f.GetRows(SheetTrends)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Indie", rows[1][1])

	rows, err = f.GetRows(SheetGPU)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "970", rows[2][1])
	assert.Equal(t, "TRUE", rows[1][6])
}

func TestWriteWorkbookEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteWorkbook(&SummaryReport{}, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetPublishers)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
