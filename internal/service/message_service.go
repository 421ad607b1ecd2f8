package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context) ([]models.ContactMessage, error)
	FindByID(ctx context.Context, id string) (*models.ContactMessage, error)
	SaveReply(ctx context.Context, id, subject, body string) error
}

// ReplyNotifier delivers an admin reply to the message author. Delivery is
// out of band; a failure does not undo the stored reply.
type ReplyNotifier interface {
	NotifyReply(ctx context.Context, msg *models.ContactMessage, subject, body string) error
}

// LogNotifier records outbound replies in the log instead of sending mail.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) NotifyReply(ctx context.Context, msg *models.ContactMessage, subject, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Sugar().Infow("reply recorded, delivery skipped",
		"message_id", msg.ID,
		"to", msg.Email,
		"subject", subject,
	)
	return nil
}

// MessageService handles the contact form and admin replies.
type MessageService struct {
	messages  messageRepository
	notifier  ReplyNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs the service. A nil notifier falls back to
// LogNotifier.
func NewMessageService(messages messageRepository, notifier ReplyNotifier, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &MessageService{messages: messages, notifier: notifier, validator: validate, logger: logger}
}

// ContactRequest is an inbound contact-form submission.
type ContactRequest struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   *string `json:"phone"`
	Subject string  `json:"subject" validate:"required"`
	Message string  `json:"message" validate:"required"`
}

// ReplyRequest is an admin reply to a contact message.
type ReplyRequest struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// Submit stores a contact-form submission.
func (s *MessageService) Submit(ctx context.Context, req ContactRequest) (*models.ContactMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	s.logger.Sugar().Infow("contact message received", "message_id", msg.ID)
	return msg, nil
}

// List returns all contact messages (admin).
func (s *MessageService) List(ctx context.Context) ([]models.ContactMessage, error) {
	messages, err := s.messages.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

// Reply records an admin reply on a message.
func (s *MessageService) Reply(ctx context.Context, id string, req ReplyRequest) (*models.ContactMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.messages.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load message")
	}
	if err := s.messages.SaveReply(ctx, id, req.Subject, req.Body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save reply")
	}
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload message")
	}
	if err := s.notifier.NotifyReply(ctx, msg, req.Subject, req.Body); err != nil {
		s.logger.Sugar().Warnw("reply notification failed", "message_id", id, "error", err)
	}
	return msg, nil
}
