package model

import "time"

// Availability is a worker's recurring weekly declaration of workable days
// and hour ranges. One record per worker, replaced wholesale on save; there
// are no incremental patch semantics.
type Availability struct {
	UserID string `gorm:"primaryKey;size:64" json:"userId"`
	// Days holds weekday names ("Monday".."Sunday"); duplicates carry no
	// meaning and order is irrelevant.
	Days []string `gorm:"serializer:json" json:"days"`
	// TimeSlots holds "HH:MM-HH:MM" interval strings. Slots may overlap
	// each other; no dedup is enforced.
	TimeSlots []string `gorm:"serializer:json" json:"timeSlots"`

	UpdatedAt time.Time `json:"-"`
}
