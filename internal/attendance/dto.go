package attendance

import (
	"time"

	"github.com/google/uuid"

	"github.com/attendly/timeclock-backend/pkg/db/models"
)

// RecordDTO is the transport shape of a single attendance record.
type RecordDTO struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Duration     string     `json:"duration"`
	IPAddress    string     `json:"ip_address"`
	DeviceInfo   string     `json:"device_info"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AveragesDTO carries the caller's formatted averages.
type AveragesDTO struct {
	DailyAverage   string `json:"daily_average"`
	MonthlyAverage string `json:"monthly_average"`
}

// UserAveragesDTO is one row of the admin per-user averages view.
type UserAveragesDTO struct {
	UserID         uuid.UUID `json:"user_id"`
	Email          string    `json:"email"`
	DailyAverage   string    `json:"daily_average"`
	MonthlyAverage string    `json:"monthly_average"`
}

// StatusDTO reports whether the caller currently has an open check-in.
type StatusDTO struct {
	CheckedIn bool       `json:"checked_in"`
	Since     *time.Time `json:"since,omitempty"`
	RecordID  *uuid.UUID `json:"record_id,omitempty"`
}

func FromModel(r *models.AttendanceRecord) *RecordDTO {
	if r == nil {
		return nil
	}
	return &RecordDTO{
		ID:           r.ID,
		UserID:       r.UserID,
		CheckInTime:  r.CheckInTime,
		CheckOutTime: r.CheckOutTime,
		Duration:     Duration(*r),
		IPAddress:    r.IPAddress,
		DeviceInfo:   r.DeviceInfo,
		CreatedAt:    r.CreatedAt,
	}
}

func fromModels(records []models.AttendanceRecord) []RecordDTO {
	out := make([]RecordDTO, 0, len(records))
	for i := range records {
		out = append(out, *FromModel(&records[i]))
	}
	return out
}
