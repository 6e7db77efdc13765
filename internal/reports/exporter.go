package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// FileName is the download name of every exported report.
const FileName = "attendance_report.xlsx"

const sheetName = "Attendance"

var headerRow = []any{"Employee", "Date", "Check In", "Check Out", "Duration"}

// WriteXLSX encodes the projected rows into a single-sheet workbook.
func WriteXLSX(rows []Row) (*bytes.Buffer, error) {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	defaultSheet := file.GetSheetName(0)
	if err := file.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := file.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		values := []any{row.Employee, row.Date, row.CheckIn, row.CheckOut, row.Duration}
		if err := file.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf, nil
}
