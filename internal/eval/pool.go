// Package eval maintains the precomputed availability-match flag on cached
// shifts. Sync dispatches changed shift IDs here so list reads can highlight
// matches without recomputing them per request.
package eval

import (
	"context"
	"log"

	"guardshift-agent/internal/match"
	"guardshift-agent/internal/store"
)

// WorkerPool manages a pool of workers evaluating shifts against the
// worker's declared availability.
type WorkerPool struct {
	size  int
	jobs  chan string
	store store.Store
}

// NewWorkerPool creates a new evaluation pool.
func NewWorkerPool(size int, st store.Store) *WorkerPool {
	return &WorkerPool{
		size:  size,
		jobs:  make(chan string, size),
		store: st,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Eval worker %d started", id)
	for {
		select {
		case shiftID := <-wp.jobs:
			wp.evaluate(ctx, shiftID)
		case <-ctx.Done():
			log.Printf("Eval worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues one shift for (re-)evaluation.
func (wp *WorkerPool) Dispatch(shiftID string) {
	wp.jobs <- shiftID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

// RedispatchAll queues every cached shift, used after the availability
// declaration changes.
func (wp *WorkerPool) RedispatchAll(ctx context.Context) {
	shifts, err := wp.store.ListShifts(ctx, false)
	if err != nil {
		log.Printf("Error listing shifts for re-evaluation: %v", err)
		return
	}
	for _, sh := range shifts {
		wp.Dispatch(sh.ID)
	}
}

// evaluate recomputes the match flag for one shift.
func (wp *WorkerPool) evaluate(ctx context.Context, shiftID string) {
	shift, err := wp.store.GetShift(ctx, shiftID)
	if err != nil || shift == nil {
		if err != nil {
			log.Printf("Error fetching shift %s for evaluation: %v", shiftID, err)
		}
		return
	}
	avail, err := wp.store.GetAvailability(ctx)
	if err != nil {
		log.Printf("Error fetching availability for evaluation: %v", err)
		return
	}

	matches := match.Matches(*shift, avail)
	if matches == shift.MatchesAvailability {
		return
	}
	if err := wp.store.SetShiftMatch(ctx, shiftID, matches); err != nil {
		log.Printf("Error updating match flag for shift %s: %v", shiftID, err)
	}
}
