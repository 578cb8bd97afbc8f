package model

import (
	"fmt"
	"time"
)

// Shift status values as reported by the staffing platform. Transitions are
// forward-only and happen through apply/assign/check-in/check-out; the agent
// never regresses a status locally.
const (
	StatusOpen       = "open"
	StatusApplied    = "applied"
	StatusAssigned   = "assigned"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
)

// Shift represents one offered or assigned shift as cached locally. The
// platform owns the record; rows are upserted from sync cycles and confirmed
// action responses, never deleted.
type Shift struct {
	ID        string  `gorm:"primaryKey;size:64" json:"id"`
	Date      string  `gorm:"size:32;not null" json:"date"`
	StartTime string  `gorm:"size:8" json:"startTime"`
	EndTime   string  `gorm:"size:8" json:"endTime"`
	Status    string  `gorm:"size:16;not null" json:"status"`
	PayRate   float64 `json:"payRate"`
	Site      string  `gorm:"size:256" json:"site"`

	// Mine marks shifts fetched from the worker's own list.
	Mine bool `json:"mine"`
	// MatchesAvailability is maintained by the eval worker pool so list
	// reads can highlight matches without recomputing them.
	MatchesAvailability bool `json:"matchesAvailability"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Day returns the weekday of the shift's calendar date. The platform sends
// dates either as plain "2006-01-02" strings or as full RFC3339 timestamps.
func (s Shift) Day() (time.Weekday, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s.Date); err == nil {
			return t.Weekday(), nil
		}
	}
	return 0, fmt.Errorf("unable to parse shift date: %q", s.Date)
}

// HasWindow reports whether the shift carries a usable time window. A shift
// with neither a start nor an end time cannot be matched against slots.
func (s Shift) HasWindow() bool {
	return s.StartTime != "" || s.EndTime != ""
}
