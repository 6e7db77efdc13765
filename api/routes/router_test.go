package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/attendly/timeclock-backend/pkg/config"
)

func testDeps(env string) Deps {
	return Deps{
		Config: &config.Config{
			App: config.AppConfig{Env: env, Port: "0"},
			JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10},
		},
		Location: time.UTC,
	}
}

func TestRouterHealthLive(t *testing.T) {
	router := NewRouter(testDeps("dev"))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterProtectsAttendanceRoutes(t *testing.T) {
	router := NewRouter(testDeps("dev"))

	for _, target := range []string{
		"/api/v1/attendance/status",
		"/api/v1/attendance/records",
		"/api/v1/attendance/averages",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", target, resp.Code)
		}
	}
}

func TestRouterProtectsAdminRoutes(t *testing.T) {
	router := NewRouter(testDeps("dev"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/attendance/records", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterHidesPromoteInProduction(t *testing.T) {
	router := NewRouter(testDeps("prod"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/promote", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound && resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected promote hidden in production, got %d", resp.Code)
	}
}
