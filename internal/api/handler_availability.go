package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"guardshift-agent/internal/model"
)

// GetAvailability returns the cached weekly declaration, or null when none
// has been declared yet.
func (h *Handler) GetAvailability(c *gin.Context) {
	av, err := h.store.GetAvailability(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}

// PutAvailability validates and replaces the weekly declaration, then
// re-evaluates every cached shift against it.
func (h *Handler) PutAvailability(c *gin.Context) {
	var av model.Availability
	if err := c.ShouldBindJSON(&av); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_failed"})
		return
	}

	ctx := c.Request.Context()
	saved, err := h.engine.SaveAvailability(ctx, &av)
	if err != nil {
		respondError(c, err)
		return
	}

	h.pool.RedispatchAll(ctx)
	c.JSON(http.StatusOK, saved)
}
