package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/attendly/timeclock-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AttendanceRecord{}))
	return db
}

func TestSetCheckOutClosesExactlyOnce(t *testing.T) {
	repo := NewRepository(openRepoDB(t))
	ctx := context.Background()
	userID := uuid.New()

	record := &models.AttendanceRecord{
		UserID:      userID,
		CheckInTime: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, record))
	require.NotEqual(t, uuid.Nil, record.ID)

	at := record.CheckInTime.Add(8 * time.Hour)
	require.NoError(t, repo.SetCheckOut(ctx, record.ID, at))

	// Second close is rejected; the stored check-out survives.
	err := repo.SetCheckOut(ctx, record.ID, at.Add(time.Hour))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindOpenByUser(ctx, userID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestHasRecordInWindow(t *testing.T) {
	repo := NewRepository(openRepoDB(t))
	ctx := context.Background()
	userID := uuid.New()

	checkIn := time.Date(2026, 6, 2, 14, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.AttendanceRecord{
		UserID:      userID,
		CheckInTime: checkIn,
	}))

	dayStart := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	found, err := repo.HasRecordInWindow(ctx, userID, dayStart, dayStart.Add(24*time.Hour))
	require.NoError(t, err)
	require.True(t, found)

	nextDay := dayStart.Add(24 * time.Hour)
	found, err = repo.HasRecordInWindow(ctx, userID, nextDay, nextDay.Add(24*time.Hour))
	require.NoError(t, err)
	require.False(t, found)

	found, err = repo.HasRecordInWindow(ctx, uuid.New(), dayStart, dayStart.Add(24*time.Hour))
	require.NoError(t, err)
	require.False(t, found)
}
