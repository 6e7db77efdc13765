package attendance

import (
	"fmt"
	"time"

	"github.com/attendly/timeclock-backend/pkg/db/models"
)

const (
	millisPerMinute int64 = 60_000
	millisPerHour   int64 = 3_600_000
)

// NotAvailable is rendered for records that are still open.
const NotAvailable = "N/A"

// FormatDurationMillis renders elapsed milliseconds as "Xh Ym". Both fields
// floor: 59m59.999s is "0h 59m".
func FormatDurationMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / millisPerHour
	minutes := (ms % millisPerHour) / millisPerMinute
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// Duration renders the worked span of a record, or "N/A" while it is open.
func Duration(record models.AttendanceRecord) string {
	ms, ok := durationMillis(record)
	if !ok {
		return NotAvailable
	}
	return FormatDurationMillis(ms)
}

func durationMillis(record models.AttendanceRecord) (int64, bool) {
	if record.CheckOutTime == nil {
		return 0, false
	}
	return record.CheckOutTime.UnixMilli() - record.CheckInTime.UnixMilli(), true
}

// DailyAverage is the mean worked span across completed records. Open
// records are excluded entirely; no completed records means "0h 0m".
func DailyAverage(records []models.AttendanceRecord) string {
	var total int64
	var count int64
	for _, record := range records {
		if ms, ok := durationMillis(record); ok {
			total += ms
			count++
		}
	}
	if count == 0 {
		return FormatDurationMillis(0)
	}
	return FormatDurationMillis(total / count)
}

// MonthlyAverage sums completed spans whose check-in falls inside the
// current calendar month of loc and divides by the number of days in that
// month, worked or not. A month with no completed records is "0h 0m".
func MonthlyAverage(records []models.AttendanceRecord, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	localNow := now.In(loc)
	year, month, _ := localNow.Date()
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()

	var total int64
	for _, record := range records {
		ms, ok := durationMillis(record)
		if !ok {
			continue
		}
		inYear, inMonth, _ := record.CheckInTime.In(loc).Date()
		if inYear != year || inMonth != month {
			continue
		}
		total += ms
	}

	return FormatDurationMillis(total / int64(daysInMonth))
}
