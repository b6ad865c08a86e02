package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"authwatch/internal"
)

func ExportRowsToXLSX(rows []internal.ReportExportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"ID", "WebsiteId", "Username", "Status", "locationId", "LastUpdated",
		"practiceGroupId", "practiceGroupName", "FetchedAt",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.ID)
		set(2, row.WebsiteID)
		set(3, row.Username)
		set(4, row.Status)
		set(5, row.LocationID)
		set(6, row.LastUpdated)
		set(7, row.PracticeGroupID)
		set(8, row.PracticeGroupName)
		set(9, row.FetchedAt)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
