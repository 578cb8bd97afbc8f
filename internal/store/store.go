package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guardshift-agent/internal/model"
)

// ErrInvalidAttendance rejects a write that would violate the attendance
// invariant: a check-out only ever exists on top of a check-in, and never
// precedes it.
var ErrInvalidAttendance = errors.New("attendance record violates the check-in/check-out invariant")

// Store defines the local cache operations. Shift rows are only ever upserted
// or refetched, never deleted: the platform owns the records.
type Store interface {
	DB() *gorm.DB

	// UpsertShifts reconciles a fetched shift list into the cache and
	// returns the IDs of rows that were created or changed, so match
	// evaluation can be re-run for them.
	UpsertShifts(ctx context.Context, shifts []model.Shift, mine bool) (changed []string, err error)
	// SaveShift persists one confirmed shift from an action response.
	SaveShift(ctx context.Context, shift *model.Shift) error
	// GetShift returns the cached shift, or nil when unknown.
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	ListShifts(ctx context.Context, onlyMine bool) ([]model.Shift, error)
	// SetShiftMatch records the availability-match flag for one shift.
	SetShiftMatch(ctx context.Context, id string, matches bool) error

	GetAvailability(ctx context.Context) (*model.Availability, error)
	// ReplaceAvailability swaps the worker's declaration wholesale.
	ReplaceAvailability(ctx context.Context, av *model.Availability) error

	GetAttendance(ctx context.Context, shiftID string) (*model.AttendanceRecord, error)
	ListAttendance(ctx context.Context) ([]model.AttendanceRecord, error)
	SaveAttendance(ctx context.Context, rec *model.AttendanceRecord) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) UpsertShifts(ctx context.Context, shifts []model.Shift, mine bool) ([]string, error) {
	existing, err := s.fetchAllShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pre-fetch cached shifts: %w", err)
	}

	var toUpsert []model.Shift
	var changed []string
	for _, sh := range shifts {
		if sh.ID == "" {
			continue
		}
		prepared, needsUpsert := prepareShift(sh, existing, mine)
		if needsUpsert {
			toUpsert = append(toUpsert, prepared)
			changed = append(changed, prepared.ID)
		}
	}

	if len(toUpsert) == 0 {
		return nil, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"date", "start_time", "end_time", "status", "pay_rate", "site", "mine", "updated_at",
			}),
		}).Create(&toUpsert).Error
	})
	if err != nil {
		return nil, fmt.Errorf("batch upsert shifts failed: %w", err)
	}
	return changed, nil
}

// prepareShift merges a fetched shift with its cached row. The locally
// maintained match flag survives the upsert; the mine flag is sticky because
// a shift can appear on both the open board and the worker's own list.
func prepareShift(sh model.Shift, existing map[string]model.Shift, mine bool) (model.Shift, bool) {
	sh.Mine = mine
	old, exists := existing[sh.ID]
	if !exists {
		return sh, true
	}

	sh.Mine = sh.Mine || old.Mine
	sh.MatchesAvailability = old.MatchesAvailability
	if old.Date == sh.Date &&
		old.StartTime == sh.StartTime &&
		old.EndTime == sh.EndTime &&
		old.Status == sh.Status &&
		old.PayRate == sh.PayRate &&
		old.Site == sh.Site &&
		old.Mine == sh.Mine {
		return sh, false
	}
	return sh, true
}

func (s *gormStore) SaveShift(ctx context.Context, shift *model.Shift) error {
	if shift == nil || shift.ID == "" {
		return fmt.Errorf("cannot save a shift without an id")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"date", "start_time", "end_time", "status", "pay_rate", "site", "mine", "updated_at",
		}),
	}).Create(shift).Error
}

func (s *gormStore) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := s.db.WithContext(ctx).First(&shift, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (s *gormStore) ListShifts(ctx context.Context, onlyMine bool) ([]model.Shift, error) {
	q := s.db.WithContext(ctx).Order("date, start_time, id")
	if onlyMine {
		q = q.Where("mine = ?", true)
	}
	var shifts []model.Shift
	if err := q.Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

func (s *gormStore) SetShiftMatch(ctx context.Context, id string, matches bool) error {
	return s.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("id = ?", id).
		Update("matches_availability", matches).Error
}

func (s *gormStore) GetAvailability(ctx context.Context) (*model.Availability, error) {
	var av model.Availability
	err := s.db.WithContext(ctx).First(&av).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &av, nil
}

func (s *gormStore) ReplaceAvailability(ctx context.Context, av *model.Availability) error {
	if av == nil || av.UserID == "" {
		return fmt.Errorf("cannot save availability without a user id")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Wholesale replace: a single worker session owns one record.
		if err := tx.Where("1 = 1").Delete(&model.Availability{}).Error; err != nil {
			return err
		}
		return tx.Create(av).Error
	})
}

func (s *gormStore) GetAttendance(ctx context.Context, shiftID string) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := s.db.WithContext(ctx).First(&rec, "shift_id = ?", shiftID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *gormStore) ListAttendance(ctx context.Context) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	if err := s.db.WithContext(ctx).Order("shift_id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *gormStore) SaveAttendance(ctx context.Context, rec *model.AttendanceRecord) error {
	if rec == nil || rec.ShiftID == "" {
		return fmt.Errorf("cannot save an attendance record without a shift id")
	}
	if rec.CheckOutTime != nil {
		if rec.CheckInTime == nil {
			return fmt.Errorf("%w: check-out without check-in", ErrInvalidAttendance)
		}
		if rec.CheckOutTime.Before(*rec.CheckInTime) {
			return fmt.Errorf("%w: check-out precedes check-in", ErrInvalidAttendance)
		}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shift_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"check_in_time", "check_out_time", "location_verified", "updated_at",
		}),
	}).Create(rec).Error
}

func (s *gormStore) fetchAllShifts(ctx context.Context) (map[string]model.Shift, error) {
	var shifts []model.Shift
	if err := s.db.WithContext(ctx).Find(&shifts).Error; err != nil {
		return nil, err
	}
	shiftMap := make(map[string]model.Shift, len(shifts))
	for _, sh := range shifts {
		shiftMap[sh.ID] = sh
	}
	return shiftMap, nil
}
