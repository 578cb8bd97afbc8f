package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListAttendance returns every cached attendance record.
func (h *Handler) ListAttendance(c *gin.Context) {
	recs, err := h.store.ListAttendance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}
