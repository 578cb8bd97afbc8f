package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"guardshift-agent/internal/backend"
	"guardshift-agent/internal/engine"
	"guardshift-agent/internal/location"
	"guardshift-agent/internal/session"
)

// respondError maps the engine's error taxonomy onto distinct HTTP statuses
// and machine-readable codes, so the shell can offer the right recovery for
// each failure instead of a generic retry.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, backend.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, engine.ErrUnknownShift), errors.Is(err, backend.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, backend.ErrLocationMismatch):
		status, code = http.StatusConflict, "location_mismatch"
	case errors.Is(err, engine.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, engine.ErrOperationInFlight):
		status, code = http.StatusConflict, "operation_in_flight"
	case errors.Is(err, location.ErrPermissionDenied):
		status, code = http.StatusServiceUnavailable, "location_permission_denied"
	case errors.Is(err, location.ErrAcquisitionFailed),
		errors.Is(err, location.ErrAbandoned),
		errors.Is(err, location.ErrAcquireInFlight):
		status, code = http.StatusServiceUnavailable, "location_unavailable"
	case errors.Is(err, backend.ErrUnauthorized), errors.Is(err, session.ErrInvalidated):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, backend.ErrTransient):
		status, code = http.StatusBadGateway, "platform_unavailable"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}
