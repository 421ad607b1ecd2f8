package models

// ClassLevel is a syllabus level a booking may be tagged with (1M ... 10M).
type ClassLevel struct {
	ID     string `db:"id" json:"id"`
	Code   string `db:"code" json:"code"`
	Title  string `db:"title" json:"title"`
	Active bool   `db:"active" json:"active"`
}
