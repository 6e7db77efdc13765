package db

import "strings"

// OpenCheckInConstraint is the partial unique index that guarantees at most
// one open check-in per user.
const OpenCheckInConstraint = "idx_attendance_open_per_user"

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}
