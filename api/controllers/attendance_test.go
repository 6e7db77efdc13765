package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/attendly/timeclock-backend/api/middleware"
	"github.com/attendly/timeclock-backend/internal/attendance"
	pkgerrors "github.com/attendly/timeclock-backend/pkg/errors"
	"github.com/google/uuid"
)

type stubAttendanceService struct {
	record   *attendance.RecordDTO
	status   *attendance.StatusDTO
	history  []attendance.RecordDTO
	averages *attendance.AveragesDTO
	allUsers []attendance.UserAveragesDTO
	err      error

	checkInIP     string
	checkInDevice string
	listFilter    *uuid.UUID
}

func (s *stubAttendanceService) CheckIn(ctx context.Context, userID uuid.UUID, ip, device string) (*attendance.RecordDTO, error) {
	s.checkInIP = ip
	s.checkInDevice = device
	return s.record, s.err
}

func (s *stubAttendanceService) CheckOut(ctx context.Context, userID uuid.UUID) (*attendance.RecordDTO, error) {
	return s.record, s.err
}

func (s *stubAttendanceService) Status(ctx context.Context, userID uuid.UUID) (*attendance.StatusDTO, error) {
	return s.status, s.err
}

func (s *stubAttendanceService) History(ctx context.Context, userID uuid.UUID) ([]attendance.RecordDTO, error) {
	return s.history, s.err
}

func (s *stubAttendanceService) Averages(ctx context.Context, userID uuid.UUID) (*attendance.AveragesDTO, error) {
	return s.averages, s.err
}

func (s *stubAttendanceService) ListAll(ctx context.Context, userID *uuid.UUID) ([]attendance.RecordDTO, error) {
	s.listFilter = userID
	return s.history, s.err
}

func (s *stubAttendanceService) AveragesForAllUsers(ctx context.Context) ([]attendance.UserAveragesDTO, error) {
	return s.allUsers, s.err
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	return req.WithContext(ctx)
}

func TestAttendanceCheckInCapturesClientMetadata(t *testing.T) {
	svc := &stubAttendanceService{record: &attendance.RecordDTO{ID: uuid.New(), Duration: "N/A"}}

	req := authedRequest(http.MethodPost, "/api/v1/attendance/check-in")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "clock-kiosk/2.1")
	resp := httptest.NewRecorder()

	AttendanceCheckIn(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.checkInIP != "203.0.113.9" {
		t.Fatalf("expected forwarded ip, got %q", svc.checkInIP)
	}
	if svc.checkInDevice != "clock-kiosk/2.1" {
		t.Fatalf("expected user agent, got %q", svc.checkInDevice)
	}
}

func TestAttendanceCheckInRequiresIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", nil)
	resp := httptest.NewRecorder()

	AttendanceCheckIn(&stubAttendanceService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAttendanceCheckOutMapsStateConflict(t *testing.T) {
	svc := &stubAttendanceService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "not checked in")}

	resp := httptest.NewRecorder()
	AttendanceCheckOut(svc, nil).ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/attendance/check-out"))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if envelope.Error.Message != "not checked in" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestAttendanceStatusReturnsPayload(t *testing.T) {
	svc := &stubAttendanceService{status: &attendance.StatusDTO{CheckedIn: true}}

	resp := httptest.NewRecorder()
	AttendanceStatus(svc, nil).ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/attendance/status"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			CheckedIn bool `json:"checked_in"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.CheckedIn {
		t.Fatal("expected checked_in true")
	}
}

func TestAttendanceRecordsReturnsHistory(t *testing.T) {
	svc := &stubAttendanceService{history: []attendance.RecordDTO{{ID: uuid.New(), Duration: "8h 0m"}}}

	resp := httptest.NewRecorder()
	AttendanceRecords(svc, nil).ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/attendance/records"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
