// Package engine is the attendance state machine. It guards every transition
// locally, forwards location fixes to the platform, and mutates the cache
// only from confirmed platform responses, so the agent's notion of a shift's
// status never diverges from the source of truth.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"guardshift-agent/internal/backend"
	"guardshift-agent/internal/match"
	"guardshift-agent/internal/model"
	"guardshift-agent/internal/store"
	"guardshift-agent/internal/timewin"
)

var (
	// ErrUnknownShift means the shift is not in the local cache.
	ErrUnknownShift = errors.New("unknown shift")

	// ErrInvalidTransition rejects an action the shift's current status
	// does not allow. The platform is never contacted in that case.
	ErrInvalidTransition = errors.New("shift is not in a valid state for this action")

	// ErrOperationInFlight rejects a duplicate trigger while an attendance
	// action for the same shift is still pending.
	ErrOperationInFlight = errors.New("an attendance action is already in flight for this shift")

	// ErrValidation rejects an availability declaration before anything is
	// sent to the platform.
	ErrValidation = errors.New("invalid availability declaration")
)

// Backend is the subset of the platform client the engine drives.
type Backend interface {
	Apply(ctx context.Context, shiftID string) (*model.Shift, error)
	CheckIn(ctx context.Context, shiftID string, fix *model.LocationFix) (*model.AttendanceRecord, *model.Shift, error)
	CheckOut(ctx context.Context, shiftID string, fix *model.LocationFix) (*model.AttendanceRecord, *model.Shift, error)
	SaveAvailability(ctx context.Context, userID string, av *model.Availability) error
}

// Locator produces a trusted position fix when the caller does not supply
// one.
type Locator interface {
	Acquire(ctx context.Context) (*model.LocationFix, error)
}

// Service implements the shift lifecycle operations.
type Service struct {
	store   store.Store
	backend Backend
	locator Locator
	userID  string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates the engine around its collaborators.
func NewService(st store.Store, be Backend, loc Locator, userID string) *Service {
	return &Service{
		store:    st,
		backend:  be,
		locator:  loc,
		userID:   userID,
		inFlight: make(map[string]struct{}),
	}
}

// Apply submits an application for an open shift. Any other status fails
// locally; an application rejected upstream is reported, never auto-retried.
func (s *Service) Apply(ctx context.Context, shiftID string) (*model.Shift, error) {
	shift, err := s.getShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != model.StatusOpen {
		return nil, fmt.Errorf("%w: cannot apply while %q", ErrInvalidTransition, shift.Status)
	}

	release, err := s.begin(shiftID)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := s.backend.Apply(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Some platform builds confirm with a message only.
		confirmed := *shift
		confirmed.Status = model.StatusApplied
		updated = &confirmed
	}
	if err := s.store.SaveShift(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to persist confirmed shift: %w", err)
	}
	return updated, nil
}

// CheckIn records the start of work on an assigned shift. When fix is nil the
// location gateway acquires one; permission and acquisition failures surface
// before the platform is contacted. The attendance record in the confirmed
// response is authoritative, including the geofence verdict.
func (s *Service) CheckIn(ctx context.Context, shiftID string, fix *model.LocationFix) (*model.AttendanceRecord, error) {
	shift, err := s.getShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != model.StatusAssigned {
		return nil, fmt.Errorf("%w: cannot check in while %q", ErrInvalidTransition, shift.Status)
	}

	release, err := s.begin(shiftID)
	if err != nil {
		return nil, err
	}
	defer release()

	if fix == nil {
		if fix, err = s.locator.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	rec, updatedShift, err := s.backend.CheckIn(ctx, shiftID, fix)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: check-in confirmation missing attendance record", backend.ErrTransient)
	}
	return rec, s.commit(ctx, shift, updatedShift, rec, model.StatusInProgress)
}

// CheckOut records the end of work on an in-progress shift. The status guard
// guarantees a check-out is never sent before its check-in was confirmed.
func (s *Service) CheckOut(ctx context.Context, shiftID string, fix *model.LocationFix) (*model.AttendanceRecord, error) {
	shift, err := s.getShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != model.StatusInProgress {
		return nil, fmt.Errorf("%w: cannot check out while %q", ErrInvalidTransition, shift.Status)
	}

	release, err := s.begin(shiftID)
	if err != nil {
		return nil, err
	}
	defer release()

	if fix == nil {
		if fix, err = s.locator.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	rec, updatedShift, err := s.backend.CheckOut(ctx, shiftID, fix)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: check-out confirmation missing attendance record", backend.ErrTransient)
	}
	return rec, s.commit(ctx, shift, updatedShift, rec, model.StatusCompleted)
}

// commit persists the confirmed attendance record and shift status.
func (s *Service) commit(ctx context.Context, prev, confirmed *model.Shift, rec *model.AttendanceRecord, fallbackStatus string) error {
	if rec.ShiftID == "" {
		rec.ShiftID = prev.ID
	}
	if err := s.store.SaveAttendance(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist attendance record: %w", err)
	}
	if confirmed == nil {
		next := *prev
		next.Status = fallbackStatus
		confirmed = &next
	}
	if err := s.store.SaveShift(ctx, confirmed); err != nil {
		return fmt.Errorf("failed to persist confirmed shift: %w", err)
	}
	return nil
}

// SaveAvailability validates and replaces the worker's weekly declaration.
// Invalid declarations never reach the platform.
func (s *Service) SaveAvailability(ctx context.Context, av *model.Availability) (*model.Availability, error) {
	if av == nil || len(av.Days) == 0 {
		return nil, fmt.Errorf("%w: select at least one day", ErrValidation)
	}
	if len(av.TimeSlots) == 0 {
		return nil, fmt.Errorf("%w: select at least one time slot", ErrValidation)
	}
	for _, day := range av.Days {
		if !validWeekday(day) {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrValidation, day)
		}
	}
	for _, slot := range av.TimeSlots {
		if _, _, err := timewin.ParseSlot(slot); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	av.UserID = s.userID
	if err := s.backend.SaveAvailability(ctx, s.userID, av); err != nil {
		return nil, err
	}
	if err := s.store.ReplaceAvailability(ctx, av); err != nil {
		return nil, fmt.Errorf("failed to persist availability: %w", err)
	}
	return av, nil
}

// ListShifts returns cached shifts, optionally restricted to the worker's own
// and to those matching the declared availability. The matching filter is
// computed live against the current declaration.
func (s *Service) ListShifts(ctx context.Context, onlyMine, matchingOnly bool) ([]model.Shift, error) {
	shifts, err := s.store.ListShifts(ctx, onlyMine)
	if err != nil {
		return nil, err
	}
	if !matchingOnly {
		return shifts, nil
	}

	avail, err := s.store.GetAvailability(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]model.Shift, 0, len(shifts))
	for _, sh := range shifts {
		if match.Matches(sh, avail) {
			matched = append(matched, sh)
		}
	}
	return matched, nil
}

func (s *Service) getShift(ctx context.Context, shiftID string) (*model.Shift, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShift, shiftID)
	}
	return shift, nil
}

// begin latches the shift against duplicate triggers; the returned release
// must be called once the operation settles.
func (s *Service) begin(shiftID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[shiftID]; busy {
		return nil, ErrOperationInFlight
	}
	s.inFlight[shiftID] = struct{}{}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inFlight, shiftID)
	}, nil
}

func validWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}
