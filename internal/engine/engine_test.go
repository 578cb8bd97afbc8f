package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"guardshift-agent/internal/backend"
	"guardshift-agent/internal/location"
	"guardshift-agent/internal/model"
	"guardshift-agent/internal/store"
)

// scriptedBackend counts calls and plays back scripted responses, so tests
// can assert the platform was (or was not) contacted.
type scriptedBackend struct {
	mu sync.Mutex

	applyCalls    int
	checkInCalls  int
	checkOutCalls int

	applyShift    *model.Shift
	applyErr      error
	attendance    *model.AttendanceRecord
	shift         *model.Shift
	checkErr      error
	availErr      error
	lastFix       *model.LocationFix
	blockUntil    chan struct{}
}

func (b *scriptedBackend) Apply(ctx context.Context, shiftID string) (*model.Shift, error) {
	b.mu.Lock()
	b.applyCalls++
	b.mu.Unlock()
	return b.applyShift, b.applyErr
}

func (b *scriptedBackend) CheckIn(ctx context.Context, shiftID string, fix *model.LocationFix) (*model.AttendanceRecord, *model.Shift, error) {
	b.mu.Lock()
	b.checkInCalls++
	b.lastFix = fix
	b.mu.Unlock()
	if b.blockUntil != nil {
		<-b.blockUntil
	}
	return b.attendance, b.shift, b.checkErr
}

func (b *scriptedBackend) CheckOut(ctx context.Context, shiftID string, fix *model.LocationFix) (*model.AttendanceRecord, *model.Shift, error) {
	b.mu.Lock()
	b.checkOutCalls++
	b.lastFix = fix
	b.mu.Unlock()
	return b.attendance, b.shift, b.checkErr
}

func (b *scriptedBackend) SaveAvailability(ctx context.Context, userID string, av *model.Availability) error {
	return b.availErr
}

// staticLocator hands back a fixed fix or error.
type staticLocator struct {
	fix *model.LocationFix
	err error
}

func (l *staticLocator) Acquire(ctx context.Context) (*model.LocationFix, error) {
	return l.fix, l.err
}

func newEngineTest(t *testing.T, be Backend, loc Locator) (*Service, store.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(&model.Shift{}, &model.Availability{}, &model.AttendanceRecord{}))

	st := store.NewGormStore(db)
	if loc == nil {
		loc = &staticLocator{fix: &model.LocationFix{Latitude: 51.5, Longitude: -0.12, CapturedAt: time.Now().UTC()}}
	}
	return NewService(st, be, loc, "worker-1"), st
}

func seedShift(t *testing.T, st store.Store, id, status string) {
	t.Helper()
	require.NoError(t, st.SaveShift(context.Background(), &model.Shift{
		ID:        id,
		Date:      "2025-09-01",
		StartTime: "09:00",
		EndTime:   "17:00",
		Status:    status,
		PayRate:   22,
		Mine:      true,
	}))
}

func TestApplyGuard(t *testing.T) {
	be := &scriptedBackend{}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()
	seedShift(t, st, "s1", model.StatusAssigned)

	_, err := svc.Apply(ctx, "s1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, be.applyCalls, "guard failures must not contact the platform")

	_, err = svc.Apply(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownShift)
}

func TestApplySuccess(t *testing.T) {
	be := &scriptedBackend{
		applyShift: &model.Shift{ID: "s1", Date: "2025-09-01", Status: model.StatusApplied, Mine: true},
	}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()
	seedShift(t, st, "s1", model.StatusOpen)

	shift, err := svc.Apply(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApplied, shift.Status)

	cached, err := st.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApplied, cached.Status)
}

func TestCheckInHappyPath(t *testing.T) {
	checkIn := time.Date(2025, 9, 1, 9, 1, 0, 0, time.UTC)
	be := &scriptedBackend{
		attendance: &model.AttendanceRecord{ShiftID: "s1", CheckInTime: &checkIn, LocationVerified: true},
		shift:      &model.Shift{ID: "s1", Date: "2025-09-01", Status: model.StatusInProgress, Mine: true},
	}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()
	seedShift(t, st, "s1", model.StatusAssigned)

	rec, err := svc.CheckIn(ctx, "s1", nil)
	require.NoError(t, err)
	assert.True(t, rec.LocationVerified)
	require.NotNil(t, be.lastFix, "the acquired fix must be forwarded to the platform")
	assert.Equal(t, 51.5, be.lastFix.Latitude)

	cached, err := st.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, cached.Status)

	saved, err := st.GetAttendance(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.NotNil(t, saved.CheckInTime)
	assert.Equal(t, checkIn.Unix(), saved.CheckInTime.Unix())
}

func TestCheckInLocationMismatchLeavesStateUntouched(t *testing.T) {
	be := &scriptedBackend{checkErr: backend.ErrLocationMismatch}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()
	seedShift(t, st, "s1", model.StatusAssigned)

	_, err := svc.CheckIn(ctx, "s1", nil)
	assert.ErrorIs(t, err, backend.ErrLocationMismatch)

	cached, err := st.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, cached.Status, "no optimistic transition on failure")

	rec, err := st.GetAttendance(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, rec, "no attendance record on a rejected check-in")
}

func TestCheckInGuardRejectsWrongStatus(t *testing.T) {
	be := &scriptedBackend{}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()

	for _, status := range []string{model.StatusOpen, model.StatusApplied, model.StatusInProgress, model.StatusCompleted, model.StatusRejected} {
		seedShift(t, st, "s1", status)
		_, err := svc.CheckIn(ctx, "s1", nil)
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %q", status)
	}
	assert.Zero(t, be.checkInCalls)
}

func TestCheckOutGuardWithoutCheckIn(t *testing.T) {
	be := &scriptedBackend{}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()
	seedShift(t, st, "s1", model.StatusAssigned)

	_, err := svc.CheckOut(ctx, "s1", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, be.checkOutCalls, "a premature check-out must never reach the platform")
}

func TestCheckOutHappyPath(t *testing.T) {
	checkIn := time.Date(2025, 9, 1, 9, 1, 0, 0, time.UTC)
	checkOut := checkIn.Add(8 * time.Hour)
	be := &scriptedBackend{
		attendance: &model.AttendanceRecord{ShiftID: "s1", CheckInTime: &checkIn, CheckOutTime: &checkOut, LocationVerified: true},
		shift:      &model.Shift{ID: "s1", Date: "2025-09-01", Status: model.StatusCompleted, Mine: true},
	}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()
	seedShift(t, st, "s1", model.StatusInProgress)

	rec, err := svc.CheckOut(ctx, "s1", &model.LocationFix{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOutTime)

	cached, err := st.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, cached.Status)
}

func TestCheckInLocatorDeniedSurfacesBeforePlatform(t *testing.T) {
	be := &scriptedBackend{}
	svc, st := newEngineTest(t, be, &staticLocator{err: location.ErrPermissionDenied})
	ctx := context.Background()
	seedShift(t, st, "s1", model.StatusAssigned)

	_, err := svc.CheckIn(ctx, "s1", nil)
	assert.ErrorIs(t, err, location.ErrPermissionDenied)
	assert.Zero(t, be.checkInCalls)
}

func TestCheckInRejectsDuplicateTrigger(t *testing.T) {
	checkIn := time.Now().UTC()
	be := &scriptedBackend{
		attendance: &model.AttendanceRecord{ShiftID: "s1", CheckInTime: &checkIn},
		blockUntil: make(chan struct{}),
	}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()
	seedShift(t, st, "s1", model.StatusAssigned)

	done := make(chan error, 1)
	go func() {
		_, err := svc.CheckIn(ctx, "s1", nil)
		done <- err
	}()

	require.Eventually(t, func() bool {
		be.mu.Lock()
		defer be.mu.Unlock()
		return be.checkInCalls == 1
	}, time.Second, time.Millisecond)

	_, err := svc.CheckIn(ctx, "s1", nil)
	assert.ErrorIs(t, err, ErrOperationInFlight)

	close(be.blockUntil)
	assert.NoError(t, <-done)
}

func TestSaveAvailabilityValidation(t *testing.T) {
	be := &scriptedBackend{}
	svc, _ := newEngineTest(t, be, nil)
	ctx := context.Background()

	testCases := []struct {
		name string
		av   *model.Availability
	}{
		{name: "no days", av: &model.Availability{TimeSlots: []string{"09:00-17:00"}}},
		{name: "no slots", av: &model.Availability{Days: []string{"Monday"}}},
		{name: "bogus day", av: &model.Availability{Days: []string{"Funday"}, TimeSlots: []string{"09:00-17:00"}}},
		{name: "bogus slot", av: &model.Availability{Days: []string{"Monday"}, TimeSlots: []string{"whenever"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SaveAvailability(ctx, tc.av)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSaveAvailabilityPersists(t *testing.T) {
	be := &scriptedBackend{}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()

	av, err := svc.SaveAvailability(ctx, &model.Availability{
		Days:      []string{"Monday", "friday"},
		TimeSlots: []string{"09:00-17:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "worker-1", av.UserID)

	cached, err := st.GetAvailability(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, []string{"Monday", "friday"}, cached.Days)
}

func TestListShiftsMatchingFilter(t *testing.T) {
	be := &scriptedBackend{}
	svc, st := newEngineTest(t, be, nil)
	ctx := context.Background()

	// 2025-09-01 is a Monday, 2025-09-02 a Tuesday.
	require.NoError(t, st.SaveShift(ctx, &model.Shift{ID: "mon", Date: "2025-09-01", StartTime: "16:00", EndTime: "18:00", Status: model.StatusOpen}))
	require.NoError(t, st.SaveShift(ctx, &model.Shift{ID: "tue", Date: "2025-09-02", StartTime: "10:00", EndTime: "12:00", Status: model.StatusOpen}))

	// Without a declaration everything matches.
	shifts, err := svc.ListShifts(ctx, false, true)
	require.NoError(t, err)
	assert.Len(t, shifts, 2)

	require.NoError(t, st.ReplaceAvailability(ctx, &model.Availability{
		UserID:    "worker-1",
		Days:      []string{"Monday"},
		TimeSlots: []string{"09:00-17:00"},
	}))

	shifts, err = svc.ListShifts(ctx, false, true)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "mon", shifts[0].ID)
}
