package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/attendly/timeclock-backend/api/responses"
	"github.com/attendly/timeclock-backend/api/validators"
	"github.com/attendly/timeclock-backend/internal/attendance"
	"github.com/attendly/timeclock-backend/internal/attendance/importer"
	"github.com/attendly/timeclock-backend/internal/reports"
	"github.com/attendly/timeclock-backend/pkg/config"
	"github.com/attendly/timeclock-backend/pkg/db/models"
	pkgerrors "github.com/attendly/timeclock-backend/pkg/errors"
	"github.com/attendly/timeclock-backend/pkg/logger"
	"github.com/google/uuid"
)

type importRunner interface {
	Import(ctx context.Context, reader io.Reader, filename string) (*importer.Report, error)
}

type recordLister interface {
	ListAll(ctx context.Context, userID *uuid.UUID) ([]models.AttendanceRecord, error)
}

type userLister interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

// AdminAttendanceRecords lists every record, optionally filtered by user_id.
func AdminAttendanceRecords(svc attendance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attendance service unavailable"))
			return
		}

		userID, err := validators.ParseQueryUUID(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListAll(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

// AdminUserAverages returns daily and monthly averages for every user.
func AdminUserAverages(svc attendance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attendance service unavailable"))
			return
		}

		averages, err := svc.AveragesForAllUsers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, averages)
	}
}

// AdminImportAttendance accepts a multipart spreadsheet upload and
// reconciles its rows into the attendance store.
func AdminImportAttendance(imp importRunner, cfg config.ImportConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if imp == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "importer unavailable"))
			return
		}

		maxBytes := int64(cfg.MaxUploadMB) << 20
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "missing file field"))
			return
		}
		defer func() { _ = file.Close() }()

		report, err := imp.Import(r.Context(), file, header.Filename)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// AdminExportAttendance streams the full attendance report as a
// spreadsheet download.
func AdminExportAttendance(records recordLister, users userLister, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if records == nil || users == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report store unavailable"))
			return
		}

		userID, err := validators.ParseQueryUUID(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		all, err := records.ListAll(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list records"))
			return
		}

		directory, err := users.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users"))
			return
		}

		buf, err := reports.WriteXLSX(reports.BuildRows(all, directory, loc))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build report"))
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.FileName))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil && logg != nil {
			logg.Error(r.Context(), "report.stream.failed", err)
		}
	}
}
