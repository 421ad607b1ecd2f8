package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/spiritschool/booking-api/internal/models"
)

// MessageRepository stores contact-form submissions and admin replies.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new contact message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO contact_messages (id, name, email, phone, subject, message, created_at)
VALUES (:id, :name, :email, :phone, :subject, :message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

// List returns contact messages, newest first.
func (r *MessageRepository) List(ctx context.Context) ([]models.ContactMessage, error) {
	const query = `SELECT id, name, email, phone, subject, message, reply_subject, reply_body, replied_at, created_at
FROM contact_messages ORDER BY created_at DESC LIMIT 500`
	var messages []models.ContactMessage
	if err := r.db.SelectContext(ctx, &messages, query); err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return messages, nil
}

// FindByID fetches one contact message.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	const query = `SELECT id, name, email, phone, subject, message, reply_subject, reply_body, replied_at, created_at
FROM contact_messages WHERE id = $1`
	var msg models.ContactMessage
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SaveReply records an admin's reply on a message.
func (r *MessageRepository) SaveReply(ctx context.Context, id, subject, body string) error {
	const query = `UPDATE contact_messages SET reply_subject = $2, reply_body = $3, replied_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, subject, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save reply: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save reply rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("contact message %s not found", id)
	}
	return nil
}
