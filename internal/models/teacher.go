package models

import "time"

// Duration bounds applied to teacher lesson lengths, in minutes.
const (
	MinLessonDurationMin     = 15
	MaxLessonDurationMin     = 240
	DefaultLessonDurationMin = 45
)

// Teacher represents an instructor record together with the recurring shift
// configuration the slot generator expands.
type Teacher struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          *string    `db:"email" json:"email,omitempty"`
	Bio            *string    `db:"bio" json:"bio,omitempty"`
	DurationMin    int        `db:"duration_min" json:"duration_min"`
	ShiftStart     *TimeOfDay `db:"shift_start" json:"shift_start,omitempty"`
	ShiftEnd       *TimeOfDay `db:"shift_end" json:"shift_end,omitempty"`
	BreakStart     *TimeOfDay `db:"break_start" json:"break_start,omitempty"`
	BreakEnd       *TimeOfDay `db:"break_end" json:"break_end,omitempty"`
	DefaultVenueID *string    `db:"default_venue_id" json:"default_venue_id,omitempty"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// HasShift reports whether both shift boundaries are configured.
func (t Teacher) HasShift() bool {
	return t.ShiftStart != nil && t.ShiftEnd != nil
}

// HasBreak reports whether both break boundaries are configured.
func (t Teacher) HasBreak() bool {
	return t.BreakStart != nil && t.BreakEnd != nil
}

// ClampedDuration returns the lesson duration bounded to the allowed range.
func (t Teacher) ClampedDuration() int {
	d := t.DurationMin
	if d == 0 {
		d = DefaultLessonDurationMin
	}
	if d < MinLessonDurationMin {
		d = MinLessonDurationMin
	}
	if d > MaxLessonDurationMin {
		d = MaxLessonDurationMin
	}
	return d
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
