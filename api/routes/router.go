package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attendly/timeclock-backend/api/controllers"
	"github.com/attendly/timeclock-backend/api/middleware"
	"github.com/attendly/timeclock-backend/internal/attendance"
	"github.com/attendly/timeclock-backend/internal/attendance/importer"
	"github.com/attendly/timeclock-backend/internal/auth"
	"github.com/attendly/timeclock-backend/internal/users"
	"github.com/attendly/timeclock-backend/pkg/auth/session"
	"github.com/attendly/timeclock-backend/pkg/config"
	"github.com/attendly/timeclock-backend/pkg/db"
	"github.com/attendly/timeclock-backend/pkg/enums"
	"github.com/attendly/timeclock-backend/pkg/logger"
	"github.com/attendly/timeclock-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             *db.Client
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker
	AuthService    auth.Service
	Attendance     attendance.Service
	Importer       *importer.Importer
	AttendanceRepo *attendance.Repository
	UserRepo       *users.Repository
	Location       *time.Location
	Registry       *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
		if !cfg.App.IsProd() {
			// Bootstrap hatch for the first admin.
			r.Post("/promote", controllers.AuthPromote(deps.AuthService, logg))
		}
	})

	r.Route("/api/v1/attendance", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

		r.Post("/check-in", controllers.AttendanceCheckIn(deps.Attendance, logg))
		r.Post("/check-out", controllers.AttendanceCheckOut(deps.Attendance, logg))
		r.Get("/status", controllers.AttendanceStatus(deps.Attendance, logg))
		r.Get("/records", controllers.AttendanceRecords(deps.Attendance, logg))
		r.Get("/averages", controllers.AttendanceAverages(deps.Attendance, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))

		r.Route("/attendance", func(r chi.Router) {
			r.Get("/records", controllers.AdminAttendanceRecords(deps.Attendance, logg))
			r.Get("/averages", controllers.AdminUserAverages(deps.Attendance, logg))
			r.Post("/import", controllers.AdminImportAttendance(deps.Importer, cfg.Import, logg))
			r.Get("/export", controllers.AdminExportAttendance(deps.AttendanceRepo, deps.UserRepo, deps.Location, logg))
		})

		r.Post("/users/promote", controllers.AuthPromote(deps.AuthService, logg))
	})

	return r
}
