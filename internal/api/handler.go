package api

import (
	"guardshift-agent/internal/engine"
	"guardshift-agent/internal/eval"
	"guardshift-agent/internal/store"
)

// Handler holds shared dependencies for the local API handlers.
type Handler struct {
	engine *engine.Service
	store  store.Store
	pool   *eval.WorkerPool
}

// NewHandler creates a new API handler.
func NewHandler(eng *engine.Service, st store.Store, pool *eval.WorkerPool) *Handler {
	return &Handler{
		engine: eng,
		store:  st,
		pool:   pool,
	}
}
