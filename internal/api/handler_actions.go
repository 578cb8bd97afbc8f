package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"guardshift-agent/internal/model"
)

// checkActionRequest is the optional body of a check-in/out trigger. When
// both coordinates are present they override the location gateway.
type checkActionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// fix returns the caller-supplied position, or nil so the engine acquires one.
func (r checkActionRequest) fix() *model.LocationFix {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &model.LocationFix{
		Latitude:   *r.Latitude,
		Longitude:  *r.Longitude,
		CapturedAt: time.Now().UTC(),
	}
}

// Apply submits an application for an open shift.
func (h *Handler) Apply(c *gin.Context) {
	shift, err := h.engine.Apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "application submitted", "shift": shift})
}

// CheckIn triggers a check-in on an assigned shift.
func (h *Handler) CheckIn(c *gin.Context) {
	req, ok := bindCheckAction(c)
	if !ok {
		return
	}
	rec, err := h.engine.CheckIn(c.Request.Context(), c.Param("id"), req.fix())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checked in", "attendance": rec})
}

// CheckOut triggers a check-out on an in-progress shift.
func (h *Handler) CheckOut(c *gin.Context) {
	req, ok := bindCheckAction(c)
	if !ok {
		return
	}
	rec, err := h.engine.CheckOut(c.Request.Context(), c.Param("id"), req.fix())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checked out", "attendance": rec})
}

// bindCheckAction decodes the optional request body. An empty body is fine;
// a malformed one is rejected before the engine runs.
func bindCheckAction(c *gin.Context) (checkActionRequest, bool) {
	var req checkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_failed"})
		return req, false
	}
	return req, true
}
