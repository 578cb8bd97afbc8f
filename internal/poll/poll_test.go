package poll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"guardshift-agent/config"
	"guardshift-agent/internal/eval"
	"guardshift-agent/internal/model"
	"guardshift-agent/internal/store"
)

// scriptedFetcher plays back fixed platform responses.
type scriptedFetcher struct {
	board []model.Shift
	mine  []model.Shift
	avail *model.Availability
	err   error
}

func (f *scriptedFetcher) FetchShifts(ctx context.Context) ([]model.Shift, error) {
	return f.board, f.err
}

func (f *scriptedFetcher) FetchMyShifts(ctx context.Context) ([]model.Shift, error) {
	return f.mine, f.err
}

func (f *scriptedFetcher) FetchAvailability(ctx context.Context, userID string) (*model.Availability, error) {
	return f.avail, f.err
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(&model.Shift{}, &model.Availability{}, &model.AttendanceRecord{}))
	return store.NewGormStore(db)
}

func TestSyncOnceReconcilesAndDispatches(t *testing.T) {
	st := newTestStore(t)
	fetcher := &scriptedFetcher{
		board: []model.Shift{
			{ID: "s1", Date: "2025-09-01", StartTime: "09:00", EndTime: "17:00", Status: model.StatusOpen},
		},
		mine: []model.Shift{
			{ID: "s2", Date: "2025-09-02", StartTime: "18:00", EndTime: "23:00", Status: model.StatusAssigned},
		},
		avail: &model.Availability{UserID: "worker-1", Days: []string{"Monday"}, TimeSlots: []string{"09:00-17:00"}},
	}

	cfg := &config.Config{}
	cfg.Platform.UserID = "worker-1"
	pool := eval.NewWorkerPool(4, st)

	svc := NewService(cfg, st, fetcher, pool)
	svc.SyncOnce(context.Background())

	// Both lists land in the cache with the mine flag set appropriately.
	board, err := st.ListShifts(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, board, 2)

	mine, err := st.ListShifts(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "s2", mine[0].ID)

	avail, err := st.GetAvailability(context.Background())
	require.NoError(t, err)
	require.NotNil(t, avail)
	assert.Equal(t, []string{"Monday"}, avail.Days)

	// Both new shifts were dispatched for match evaluation.
	dispatched := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-pool.Jobs():
			dispatched[id] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for dispatched shift IDs")
		}
	}
	assert.True(t, dispatched["s1"])
	assert.True(t, dispatched["s2"])
}

func TestSyncOnceFetchErrorLeavesCacheIntact(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveShift(ctx, &model.Shift{ID: "s1", Date: "2025-09-01", Status: model.StatusAssigned, Mine: true}))

	cfg := &config.Config{}
	pool := eval.NewWorkerPool(1, st)
	svc := NewService(cfg, st, &scriptedFetcher{err: assert.AnError}, pool)
	svc.SyncOnce(ctx)

	shift, err := st.GetShift(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, shift)
	assert.Equal(t, model.StatusAssigned, shift.Status)
}
