package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/attendly/timeclock-backend/pkg/errors"
	"github.com/google/uuid"
)

// ParseQueryUUID reads an optional uuid query parameter. A missing or blank
// value returns nil without error.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a uuid").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}
