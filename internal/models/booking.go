package models

import "time"

// BookingStatus represents the lifecycle of a booking.
type BookingStatus string

// Possible booking statuses.
const (
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking ties a requester to exactly one availability slot. Contact fields
// are snapshotted at claim time so later profile edits do not rewrite history.
type Booking struct {
	ID           string        `db:"id" json:"id"`
	TeacherID    string        `db:"teacher_id" json:"teacher_id"`
	SlotID       string        `db:"slot_id" json:"slot_id"`
	UserID       *string       `db:"user_id" json:"user_id,omitempty"`
	StudentName  string        `db:"student_name" json:"student_name"`
	StudentEmail string        `db:"student_email" json:"student_email"`
	StudentPhone *string       `db:"student_phone" json:"student_phone,omitempty"`
	ClassLevelID *string       `db:"class_level_id" json:"class_level_id,omitempty"`
	VenueID      *string       `db:"venue_id" json:"venue_id,omitempty"`
	Status       BookingStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// BookingDetail enriches Booking with display fields for listings.
type BookingDetail struct {
	Booking
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	StartAt     time.Time `db:"start_at" json:"start_at"`
	EndAt       time.Time `db:"end_at" json:"end_at"`
	VenueName   *string   `db:"venue_name" json:"venue_name,omitempty"`
	ClassCode   *string   `db:"class_code" json:"class_code,omitempty"`
	ClassTitle  *string   `db:"class_title" json:"class_title,omitempty"`
}

// BookingFilter captures filtering options for listing bookings.
type BookingFilter struct {
	UserID    string
	TeacherID string
	Status    BookingStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// Requester is the identity a claim is made on behalf of, supplied by the
// authentication layer.
type Requester struct {
	UserID string
	Name   string
	Email  string
	Phone  *string
}
