package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"guardshift-agent/config"
	"guardshift-agent/internal/mw"
)

// NewRouter creates and configures a new Gin router for the local API.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// The board cache soaks up shell refreshes between sync cycles. Shift
	// detail and the worker's own lists stay uncached so action results
	// show up immediately.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/shifts", caching, h.ListShifts)
		api.GET("/shifts/myshifts", h.ListMyShifts)
		api.GET("/shifts/:id", h.GetShift)

		api.POST("/shifts/:id/apply", h.Apply)
		api.POST("/shifts/:id/checkin", h.CheckIn)
		api.POST("/shifts/:id/checkout", h.CheckOut)

		api.GET("/availability", h.GetAvailability)
		api.PUT("/availability", h.PutAvailability)

		api.GET("/attendance", h.ListAttendance)
	}

	return r
}
