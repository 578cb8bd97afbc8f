package model

import "time"

// LocationFix is an ephemeral position sample. It is forwarded once to the
// platform as part of a check-in/check-out request and never persisted.
type LocationFix struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"-"`
}
