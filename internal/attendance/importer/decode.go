package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row is one decoded spreadsheet line, still unvalidated.
type Row struct {
	Line         int
	EmployeeName string
	CheckInRaw   string
	CheckOutRaw  string
}

var timestampFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 3:04 PM",
	"01/02/2006 03:04 PM",
	"1/2/2006 3:04:05 PM",
	"01/02/2006 03:04:05 PM",
	"1/2/2006 15:04",
	"01/02/2006 15:04",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02 15:04",
	"2006/01/02",
}

// ReadRows decodes an uploaded spreadsheet into rows. CSV is detected by
// extension; everything else goes through excelize. Decode failure here is
// the only batch-fatal import error.
func ReadRows(reader io.Reader, filename string) ([]Row, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var cells [][]string
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		cells, err = readCSV(bytes.NewReader(data))
	} else {
		cells, err = readXLSX(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	return mapRows(cells)
}

func readCSV(reader io.Reader) ([][]string, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	cells, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return cells, nil
}

func readXLSX(reader io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("decode workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}

	cells, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read worksheet: %w", err)
	}
	return cells, nil
}

func mapRows(cells [][]string) ([]Row, error) {
	header := cells[0]
	nameIdx, checkInIdx, checkOutIdx := -1, -1, -1
	for i, column := range header {
		switch normalizeHeader(column) {
		case "employeename", "employee name", "employee", "name":
			nameIdx = i
		case "checkintime", "check in time", "check-in time", "check in":
			checkInIdx = i
		case "checkouttime", "check out time", "check-out time", "check out":
			checkOutIdx = i
		}
	}
	if nameIdx < 0 || checkInIdx < 0 {
		return nil, fmt.Errorf("missing required columns EmployeeName and CheckInTime")
	}

	rows := make([]Row, 0, len(cells)-1)
	for i, line := range cells[1:] {
		row := Row{
			Line:         i + 2, // 1-based, after the header
			EmployeeName: cellValue(line, nameIdx),
			CheckInRaw:   cellValue(line, checkInIdx),
		}
		if checkOutIdx >= 0 {
			row.CheckOutRaw = cellValue(line, checkOutIdx)
		}
		if row.EmployeeName == "" && row.CheckInRaw == "" && row.CheckOutRaw == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseTimestamp accepts Excel date serials and the common textual formats
// spreadsheets export. Textual values are interpreted in loc.
func parseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return time.Date(
				parsed.Year(), parsed.Month(), parsed.Day(),
				parsed.Hour(), parsed.Minute(), parsed.Second(), parsed.Nanosecond(),
				loc,
			), true
		}
		return time.Time{}, false
	}

	for _, format := range timestampFormats {
		if parsed, err := time.ParseInLocation(format, value, loc); err == nil {
			return parsed, true
		}
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}
