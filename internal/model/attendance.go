package model

import "time"

// AttendanceRecord is the result of a check-in/check-out cycle for one shift.
// ShiftID is a weak reference; the shift itself lives in the shifts table.
//
// Invariant: CheckOutTime is only ever set when CheckInTime is set, and is
// never earlier than it. The store layer rejects writes that violate this.
type AttendanceRecord struct {
	ShiftID      string     `gorm:"primaryKey;size:64" json:"shiftId"`
	CheckInTime  *time.Time `json:"checkInTime,omitempty"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty"`
	// LocationVerified reflects the platform's geofence verdict for the
	// submitted fix. It is never assumed true client-side.
	LocationVerified bool `json:"locationVerified"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
