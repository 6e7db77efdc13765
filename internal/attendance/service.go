package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgdb "github.com/attendly/timeclock-backend/pkg/db"
	"github.com/attendly/timeclock-backend/pkg/db/models"
	pkgerrors "github.com/attendly/timeclock-backend/pkg/errors"
	"github.com/attendly/timeclock-backend/pkg/logger"
	"github.com/attendly/timeclock-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service defines the attendance operations exposed to controllers and the
// summary watcher.
type Service interface {
	CheckIn(ctx context.Context, userID uuid.UUID, ip, device string) (*RecordDTO, error)
	CheckOut(ctx context.Context, userID uuid.UUID) (*RecordDTO, error)
	Status(ctx context.Context, userID uuid.UUID) (*StatusDTO, error)
	History(ctx context.Context, userID uuid.UUID) ([]RecordDTO, error)
	Averages(ctx context.Context, userID uuid.UUID) (*AveragesDTO, error)
	ListAll(ctx context.Context, userID *uuid.UUID) ([]RecordDTO, error)
	AveragesForAllUsers(ctx context.Context) ([]UserAveragesDTO, error)
}

type repository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	FindOpenByUser(ctx context.Context, userID uuid.UUID) (*models.AttendanceRecord, error)
	SetCheckOut(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AttendanceRecord, error)
	ListAll(ctx context.Context, userID *uuid.UUID) ([]models.AttendanceRecord, error)
}

type usersDirectory interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	Repo      repository
	Users     usersDirectory
	Location  *time.Location
	Clock     func() time.Time
	Publisher EventPublisher
	Metrics   *metrics.AttendanceMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      repository
	users     usersDirectory
	loc       *time.Location
	clock     func() time.Time
	publisher EventPublisher
	metrics   *metrics.AttendanceMetrics
	logg      *logger.Logger
}

// NewService constructs the attendance service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("attendance repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users directory is required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &service{
		repo:      params.Repo,
		users:     params.Users,
		loc:       loc,
		clock:     clock,
		publisher: publisher,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// CheckIn opens a record for the user. A second check-in while one is open
// is a state conflict and writes nothing.
func (s *service) CheckIn(ctx context.Context, userID uuid.UUID, ip, device string) (*RecordDTO, error) {
	if _, err := s.repo.FindOpenByUser(ctx, userID); err == nil {
		s.metrics.IncPunchFailure("check_in")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "already checked in")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find open record")
	}

	record := &models.AttendanceRecord{
		UserID:      userID,
		CheckInTime: s.clock(),
		IPAddress:   ip,
		DeviceInfo:  device,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		// The partial unique index closes the race the read above leaves open.
		if pkgdb.IsUniqueViolation(err, pkgdb.OpenCheckInConstraint) {
			s.metrics.IncPunchFailure("check_in")
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "already checked in")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create record")
	}

	s.metrics.IncPunch("check_in")
	s.publish(ctx, Event{
		Kind:       EventCheckIn,
		UserID:     userID,
		RecordID:   record.ID,
		OccurredAt: record.CheckInTime,
	})
	return FromModel(record), nil
}

// CheckOut closes the user's open record. Checking out while checked out is
// a state conflict and writes nothing.
func (s *service) CheckOut(ctx context.Context, userID uuid.UUID) (*RecordDTO, error) {
	open, err := s.repo.FindOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncPunchFailure("check_out")
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not checked in")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find open record")
	}

	now := s.clock()
	if err := s.repo.SetCheckOut(ctx, open.ID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncPunchFailure("check_out")
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not checked in")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close record")
	}
	open.CheckOutTime = &now

	s.metrics.IncPunch("check_out")
	s.publish(ctx, Event{
		Kind:       EventCheckOut,
		UserID:     userID,
		RecordID:   open.ID,
		OccurredAt: now,
	})
	return FromModel(open), nil
}

// Status reports the caller's open record, if any.
func (s *service) Status(ctx context.Context, userID uuid.UUID) (*StatusDTO, error) {
	open, err := s.repo.FindOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &StatusDTO{CheckedIn: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find open record")
	}
	since := open.CheckInTime
	id := open.ID
	return &StatusDTO{CheckedIn: true, Since: &since, RecordID: &id}, nil
}

// History returns the caller's records, newest first.
func (s *service) History(ctx context.Context, userID uuid.UUID) ([]RecordDTO, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list records")
	}
	return fromModels(records), nil
}

// Averages computes the caller's formatted daily and monthly averages.
func (s *service) Averages(ctx context.Context, userID uuid.UUID) (*AveragesDTO, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list records")
	}
	return &AveragesDTO{
		DailyAverage:   DailyAverage(records),
		MonthlyAverage: MonthlyAverage(records, s.clock(), s.loc),
	}, nil
}

// ListAll returns every record for the admin view, optionally filtered.
func (s *service) ListAll(ctx context.Context, userID *uuid.UUID) ([]RecordDTO, error) {
	records, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list records")
	}
	return fromModels(records), nil
}

// AveragesForAllUsers recomputes the per-user averages snapshot from the
// latest store state. The summary watcher calls this on every event.
func (s *service) AveragesForAllUsers(ctx context.Context) ([]UserAveragesDTO, error) {
	directory, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	now := s.clock()
	out := make([]UserAveragesDTO, 0, len(directory))
	for _, user := range directory {
		records, err := s.repo.ListByUser(ctx, user.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list records")
		}
		out = append(out, UserAveragesDTO{
			UserID:         user.ID,
			Email:          user.Email,
			DailyAverage:   DailyAverage(records),
			MonthlyAverage: MonthlyAverage(records, now, s.loc),
		})
	}
	return out, nil
}

func (s *service) publish(ctx context.Context, event Event) {
	if err := s.publisher.Publish(ctx, event); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_kind": string(event.Kind),
			"user_id":    event.UserID.String(),
		})
		s.logg.Warn(logCtx, "attendance.event.publish_failed")
	}
}
