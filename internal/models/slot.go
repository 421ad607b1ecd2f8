package models

import "time"

// AvailabilitySlot is one bookable window owned by a teacher. Slots are minted
// by the generator (or the admin window/bulk paths) and flip to booked only
// through the claim protocol.
type AvailabilitySlot struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	StartAt      time.Time `db:"start_at" json:"start_at"`
	EndAt        time.Time `db:"end_at" json:"end_at"`
	VenueID      *string   `db:"venue_id" json:"venue_id,omitempty"`
	BusinessDate time.Time `db:"business_date" json:"business_date"`
	IsBooked     bool      `db:"is_booked" json:"is_booked"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SlotClaimTarget carries the fields the allocator reads while holding the row
// lock on a claim candidate.
type SlotClaimTarget struct {
	ID             string  `db:"id"`
	TeacherID      string  `db:"teacher_id"`
	VenueID        *string `db:"venue_id"`
	DefaultVenueID *string `db:"default_venue_id"`
	IsBooked       bool    `db:"is_booked"`
	TeacherActive  bool    `db:"teacher_active"`
}

// OpenWindow aggregates identical open slots across teachers for the calendar.
type OpenWindow struct {
	StartAt        time.Time `db:"start_at" json:"start_at"`
	EndAt          time.Time `db:"end_at" json:"end_at"`
	AvailableCount int       `db:"available_count" json:"available_count"`
	TotalCount     int       `db:"total_count" json:"total_count"`
}

// SlotFilter captures filtering options for listing a teacher's slots.
type SlotFilter struct {
	TeacherID string
	From      *time.Time
	To        *time.Time
	Booked    *bool
	Limit     int
}

// GenerationResult summarises one generator invocation for one teacher.
type GenerationResult struct {
	TeacherID    string `json:"teacher_id"`
	CreatedCount int    `json:"created_count"`
	Warning      string `json:"warning,omitempty"`
}
