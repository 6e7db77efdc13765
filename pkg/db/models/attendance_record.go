package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceRecord bounds one check-in/check-out pair. A nil CheckOutTime
// marks an open check-in. UserID carries no foreign-key constraint: records
// must tolerate orphaned user ids.
type AttendanceRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `gorm:"type:uuid;column:user_id;not null;index"`
	CheckInTime  time.Time  `gorm:"column:check_in_time;not null;index"`
	CheckOutTime *time.Time `gorm:"column:check_out_time"`
	IPAddress    string     `gorm:"column:ip_address;not null;default:''"`
	DeviceInfo   string     `gorm:"column:device_info;not null;default:''"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Completed reports whether both sides of the record are present.
func (r AttendanceRecord) Completed() bool {
	return r.CheckOutTime != nil
}
