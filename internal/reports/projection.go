package reports

import (
	"time"

	"github.com/attendly/timeclock-backend/internal/attendance"
	"github.com/attendly/timeclock-backend/pkg/db/models"
	"github.com/google/uuid"
)

// UnknownUser is rendered when a record's user id no longer resolves.
const UnknownUser = "Unknown User"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Row is one flat line of the attendance report.
type Row struct {
	Employee string `json:"employee"`
	Date     string `json:"date"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Duration string `json:"duration"`
}

// BuildRows projects records into report rows. Orphaned records keep their
// place in the report under the "Unknown User" label.
func BuildRows(records []models.AttendanceRecord, directory []models.User, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}

	emailsByID := make(map[uuid.UUID]string, len(directory))
	for _, user := range directory {
		emailsByID[user.ID] = user.Email
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		employee, ok := emailsByID[record.UserID]
		if !ok {
			employee = UnknownUser
		}

		checkIn := record.CheckInTime.In(loc)
		checkOut := ""
		if record.CheckOutTime != nil {
			checkOut = record.CheckOutTime.In(loc).Format(timeLayout)
		}

		rows = append(rows, Row{
			Employee: employee,
			Date:     checkIn.Format(dateLayout),
			CheckIn:  checkIn.Format(timeLayout),
			CheckOut: checkOut,
			Duration: attendance.Duration(record),
		})
	}
	return rows
}
