package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	SheetDevelopers = "Developers"
	SheetPublishers = "Publishers"
	SheetTrends     = "Tag Trends"
	SheetGPU        = "GPU Tiers"
)

// WriteWorkbook writes the run's tables to an XLSX file, one sheet each
func WriteWorkbook(report *SummaryReport, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	companyHeader := []interface{}{"Rank", "Name", "Score", "Games", "Owners", "Avg Price", "Avg Total Ratings", "Avg Rating", "Top Titles"}
	for _, g := range dataset.Genres {
		companyHeader = append(companyHeader, g)
	}

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{SheetDevelopers, companyHeader, companyRows(report.Developers)},
		{SheetPublishers, companyHeader, companyRows(report.Publishers)},
		{SheetTrends, []interface{}{"Rank", "Tag", "Swing", "Min Ratio", "Min Year", "Max Ratio", "Max Year"}, trendRows(report.Trends)},
		{SheetGPU, []interface{}{"Position", "Card", "Owners", "Major", "Minor", "Group", "Legacy"}, tierRows(report.Tiers)},
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}

		if err := writeSheet(f, sheet.name, header, sheet.header, sheet.rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func companyRows(scores []store.CompanyScore) [][]interface{} {
	rows := make([][]interface{}, 0, len(scores))
	for _, c := range scores {
		row := []interface{}{
			c.Rank, c.Name, c.Score, c.GameNum, c.SumOwners, c.AvgPrice,
			c.AvgTotalRatings, c.AvgRating, strings.Join(DecodeTitles(c.TopTitles), "; "),
		}
		counts := DecodeGenreCounts(c.GenreCounts)
		for _, g := range dataset.Genres {
			row = append(row, counts[g])
		}
		rows = append(rows, row)
	}
	return rows
}

func trendRows(trends []store.TagTrend) [][]interface{} {
	rows := make([][]interface{}, 0, len(trends))
	for _, t := range trends {
		rows = append(rows, []interface{}{t.Rank, t.Tag, t.Swing, t.MinRatio, t.MinYear, t.MaxRatio, t.MaxYear})
	}
	return rows
}

func tierRows(tiers []store.GPUTier) [][]interface{} {
	rows := make([][]interface{}, 0, len(tiers))
	for _, g := range tiers {
		rows = append(rows, []interface{}{g.Position, strings.TrimSpace(g.Label), g.Owners, g.Major, g.Minor, g.Grp, g.Legacy})
	}
	return rows
}
