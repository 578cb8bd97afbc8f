// Package poll keeps the local cache in step with the staffing platform by
// periodically refetching the shift board, the worker's own shifts, and the
// availability declaration.
package poll

import (
	"context"
	"errors"
	"log"
	"time"

	"guardshift-agent/config"
	"guardshift-agent/internal/backend"
	"guardshift-agent/internal/eval"
	"guardshift-agent/internal/model"
	"guardshift-agent/internal/store"
)

// Fetcher is the subset of the platform client the poller needs.
type Fetcher interface {
	FetchShifts(ctx context.Context) ([]model.Shift, error)
	FetchMyShifts(ctx context.Context) ([]model.Shift, error)
	FetchAvailability(ctx context.Context, userID string) (*model.Availability, error)
}

// Service orchestrates the periodic sync.
type Service struct {
	cfg     *config.Config
	store   store.Store
	fetcher Fetcher
	pool    *eval.WorkerPool
}

// NewService creates a new sync service.
func NewService(cfg *config.Config, st store.Store, f Fetcher, pool *eval.WorkerPool) *Service {
	return &Service{cfg: cfg, store: st, fetcher: f, pool: pool}
}

// Run starts the sync loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sync.Enabled {
		log.Println("Sync is disabled. Not starting.")
		return
	}
	log.Println("Starting sync service...")

	s.SyncOnce(ctx)

	timer := time.NewTimer(s.cfg.Sync.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sync service shutting down.")
			return
		case <-timer.C:
			s.SyncOnce(ctx)
			timer.Reset(s.cfg.Sync.Interval)
		}
	}
}

// SyncOnce performs a single reconciliation cycle. A failed fetch aborts the
// affected part of the cycle and leaves the cache as it was; a dead session
// stops the cycle entirely since every further call would fail the same way.
func (s *Service) SyncOnce(ctx context.Context) {
	log.Println("Executing sync cycle...")

	avail, err := s.fetcher.FetchAvailability(ctx, s.cfg.Platform.UserID)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		log.Println("Sync cycle aborted: session is no longer valid.")
		return
	case err != nil:
		log.Printf("Error fetching availability: %v", err)
	case avail != nil:
		if err := s.store.ReplaceAvailability(ctx, avail); err != nil {
			log.Printf("Error caching availability: %v", err)
		}
	}

	var changed []string
	if board, err := s.fetcher.FetchShifts(ctx); err != nil {
		log.Printf("Error fetching open shifts: %v", err)
	} else {
		ids, err := s.store.UpsertShifts(ctx, board, false)
		if err != nil {
			log.Printf("Error caching open shifts: %v", err)
		}
		changed = append(changed, ids...)
	}

	if mine, err := s.fetcher.FetchMyShifts(ctx); err != nil {
		log.Printf("Error fetching my shifts: %v", err)
	} else {
		ids, err := s.store.UpsertShifts(ctx, mine, true)
		if err != nil {
			log.Printf("Error caching my shifts: %v", err)
		}
		changed = append(changed, ids...)
	}

	if len(changed) > 0 {
		log.Printf("Dispatching %d shifts for match evaluation", len(changed))
		for _, id := range changed {
			s.pool.Dispatch(id)
		}
	}

	log.Println("Sync cycle finished.")
}
