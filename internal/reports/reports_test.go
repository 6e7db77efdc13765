package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/attendly/timeclock-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildRowsProjectsEveryRecord(t *testing.T) {
	jane := models.User{ID: uuid.New(), Email: "jane@example.com"}
	checkIn := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	checkOut := checkIn.Add(8*time.Hour + 30*time.Minute)

	records := []models.AttendanceRecord{
		{UserID: jane.ID, CheckInTime: checkIn, CheckOutTime: &checkOut},
		{UserID: uuid.New(), CheckInTime: checkIn.AddDate(0, 0, 1)},
	}

	rows := BuildRows(records, []models.User{jane}, time.UTC)
	require.Len(t, rows, 2)

	require.Equal(t, "jane@example.com", rows[0].Employee)
	require.Equal(t, "2026-06-15", rows[0].Date)
	require.Equal(t, "09:00:00", rows[0].CheckIn)
	require.Equal(t, "17:30:00", rows[0].CheckOut)
	require.Equal(t, "8h 30m", rows[0].Duration)

	// Orphaned user id still produces a row.
	require.Equal(t, UnknownUser, rows[1].Employee)
	require.Equal(t, "", rows[1].CheckOut)
	require.Equal(t, "N/A", rows[1].Duration)
}

func TestBuildRowsEmptyEmailIsNotUnknown(t *testing.T) {
	// "Unknown User" is reserved for records whose user id no longer
	// resolves. A user that exists with a blank email renders as blank.
	blank := models.User{ID: uuid.New(), Email: ""}
	checkIn := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

	records := []models.AttendanceRecord{{UserID: blank.ID, CheckInTime: checkIn}}
	rows := BuildRows(records, []models.User{blank}, time.UTC)
	require.Len(t, rows, 1)
	require.Equal(t, "", rows[0].Employee)
}

func TestBuildRowsUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	checkIn := time.Date(2026, 6, 15, 23, 0, 0, 0, time.UTC)
	records := []models.AttendanceRecord{{UserID: uuid.New(), CheckInTime: checkIn}}

	rows := BuildRows(records, nil, loc)
	require.Equal(t, "2026-06-16", rows[0].Date)
	require.Equal(t, "01:00:00", rows[0].CheckIn)
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	rows := []Row{
		{Employee: "jane@example.com", Date: "2026-06-15", CheckIn: "09:00:00", CheckOut: "17:30:00", Duration: "8h 30m"},
		{Employee: UnknownUser, Date: "2026-06-16", CheckIn: "08:00:00", CheckOut: "", Duration: "N/A"},
	}

	buf, err := WriteXLSX(rows)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	cells, err := file.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, cells, 3)
	require.Equal(t, "Employee", cells[0][0])
	require.Equal(t, "jane@example.com", cells[1][0])
	require.Equal(t, "8h 30m", cells[1][4])
	require.Equal(t, UnknownUser, cells[2][0])
}
