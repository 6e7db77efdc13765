package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AttendanceMetrics records check-in/check-out activity and bulk import outcomes.
type AttendanceMetrics struct {
	punches        *prometheus.CounterVec
	punchFailures  *prometheus.CounterVec
	importDuration prometheus.Histogram
	importedRows   *prometheus.CounterVec
}

// NewAttendanceMetrics registers the attendance metrics on the provided registerer.
func NewAttendanceMetrics(reg prometheus.Registerer) *AttendanceMetrics {
	if reg == nil {
		return &AttendanceMetrics{}
	}
	punches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_punches_total",
		Help: "Successful check-in and check-out operations.",
	}, []string{"kind"})
	punchFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_punch_failures_total",
		Help: "Rejected check-in and check-out operations.",
	}, []string{"kind"})
	importDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_import_duration_seconds",
		Help:    "Duration of spreadsheet import runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	importedRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_import_rows_total",
		Help: "Spreadsheet import rows by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(punches, punchFailures, importDuration, importedRows)
	return &AttendanceMetrics{
		punches:        punches,
		punchFailures:  punchFailures,
		importDuration: importDuration,
		importedRows:   importedRows,
	}
}

// IncPunch increments the success counter for the punch kind ("check_in" or "check_out").
func (a *AttendanceMetrics) IncPunch(kind string) {
	if a == nil || a.punches == nil {
		return
	}
	a.punches.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncPunchFailure increments the failure counter for the punch kind.
func (a *AttendanceMetrics) IncPunchFailure(kind string) {
	if a == nil || a.punchFailures == nil {
		return
	}
	a.punchFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

// ObserveImportDuration records how long a spreadsheet import run took.
func (a *AttendanceMetrics) ObserveImportDuration(duration time.Duration) {
	if a == nil || a.importDuration == nil {
		return
	}
	a.importDuration.Observe(duration.Seconds())
}

// AddImportRows adds to the row counter for the given outcome ("imported", "duplicate", "skipped").
func (a *AttendanceMetrics) AddImportRows(outcome string, count int) {
	if a == nil || a.importedRows == nil || count <= 0 {
		return
	}
	a.importedRows.WithLabelValues(normalizeLabel(outcome)).Add(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
