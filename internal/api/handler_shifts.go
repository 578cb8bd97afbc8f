package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"guardshift-agent/internal/model"
	"guardshift-agent/internal/timewin"
)

// shiftDetail decorates a cached shift with derived fields the shell would
// otherwise have to compute itself.
type shiftDetail struct {
	model.Shift
	DurationMinutes   int                     `json:"durationMinutes,omitempty"`
	EstimatedEarnings float64                 `json:"estimatedEarnings,omitempty"`
	Attendance        *model.AttendanceRecord `json:"attendance,omitempty"`
}

// ListShifts returns the cached shift board. ?matching=true restricts the
// list to shifts overlapping the declared availability.
func (h *Handler) ListShifts(c *gin.Context) {
	matching := c.Query("matching") == "true"
	shifts, err := h.engine.ListShifts(c.Request.Context(), false, matching)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// ListMyShifts returns the worker's own cached shifts.
func (h *Handler) ListMyShifts(c *gin.Context) {
	shifts, err := h.engine.ListShifts(c.Request.Context(), true, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// GetShift returns a single cached shift with its attendance record and
// earnings estimate.
func (h *Handler) GetShift(c *gin.Context) {
	ctx := c.Request.Context()
	shift, err := h.store.GetShift(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if shift == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shift not found", "code": "not_found"})
		return
	}

	detail := shiftDetail{Shift: *shift}
	if shift.HasWindow() {
		if mins, err := timewin.MinutesBetween(shift.StartTime, shift.EndTime); err == nil {
			detail.DurationMinutes = mins
		}
		if pay, err := timewin.Earnings(shift.StartTime, shift.EndTime, shift.PayRate); err == nil {
			detail.EstimatedEarnings = pay
		}
	}
	if rec, err := h.store.GetAttendance(ctx, shift.ID); err == nil {
		detail.Attendance = rec
	}

	c.JSON(http.StatusOK, detail)
}
