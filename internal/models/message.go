package models

import "time"

// ContactMessage stores one inbound contact-form submission and, once an
// admin answers it, the persisted reply.
type ContactMessage struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Subject      string     `db:"subject" json:"subject"`
	Message      string     `db:"message" json:"message"`
	ReplySubject *string    `db:"reply_subject" json:"reply_subject,omitempty"`
	ReplyBody    *string    `db:"reply_body" json:"reply_body,omitempty"`
	RepliedAt    *time.Time `db:"replied_at" json:"replied_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
