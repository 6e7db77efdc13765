package attendance

import (
	"context"
	"time"

	"github.com/attendly/timeclock-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes attendance persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an attendance repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new attendance record.
func (r *Repository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// FindOpenByUser returns the user's open record, or gorm.ErrRecordNotFound.
func (r *Repository) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND check_out_time IS NULL", userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SetCheckOut closes the record exactly once. Returns gorm.ErrRecordNotFound
// when the record is missing or already closed.
func (r *Repository) SetCheckOut(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("id = ? AND check_out_time IS NULL", id).
		UpdateColumn("check_out_time", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByUser returns the user's records, newest check-in first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AttendanceRecord, error) {
	var list []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("check_in_time desc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListAll returns every record, newest check-in first, optionally filtered
// to one user.
func (r *Repository) ListAll(ctx context.Context, userID *uuid.UUID) ([]models.AttendanceRecord, error) {
	query := r.db.WithContext(ctx).Order("check_in_time desc")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var list []models.AttendanceRecord
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// HasRecordInWindow reports whether the user already has any record whose
// check-in falls inside [start, end). Import dedup keys on this.
func (r *Repository) HasRecordInWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("user_id = ? AND check_in_time >= ? AND check_in_time < ?", userID, start, end).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
