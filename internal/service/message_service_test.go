package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type messageRepoStub struct {
	messages map[string]*models.ContactMessage
	replies  int
}

func (s *messageRepoStub) Create(ctx context.Context, msg *models.ContactMessage) error {
	msg.ID = "msg-new"
	if s.messages == nil {
		s.messages = map[string]*models.ContactMessage{}
	}
	s.messages[msg.ID] = msg
	return nil
}

func (s *messageRepoStub) List(ctx context.Context) ([]models.ContactMessage, error) {
	var out []models.ContactMessage
	for _, msg := range s.messages {
		out = append(out, *msg)
	}
	return out, nil
}

func (s *messageRepoStub) FindByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	if msg, ok := s.messages[id]; ok {
		return msg, nil
	}
	return nil, sql.ErrNoRows
}

func (s *messageRepoStub) SaveReply(ctx context.Context, id, subject, body string) error {
	s.replies++
	return nil
}

type notifierStub struct {
	notified int
}

func (n *notifierStub) NotifyReply(ctx context.Context, msg *models.ContactMessage, subject, body string) error {
	n.notified++
	return nil
}

func TestMessageServiceSubmitRequiresEmail(t *testing.T) {
	svc := NewMessageService(&messageRepoStub{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), ContactRequest{Name: "Ada", Subject: "Hi", Message: "Hello"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation.Code))
}

func TestMessageServiceReplyNotifies(t *testing.T) {
	repo := &messageRepoStub{messages: map[string]*models.ContactMessage{
		"msg-1": {ID: "msg-1", Name: "Ada", Email: "ada@example.com"},
	}}
	notifier := &notifierStub{}
	svc := NewMessageService(repo, notifier, nil, nil)

	_, err := svc.Reply(context.Background(), "msg-1", ReplyRequest{Subject: "Re: Hi", Body: "Welcome"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.replies)
	assert.Equal(t, 1, notifier.notified)
}

func TestMessageServiceReplyMissingMessage(t *testing.T) {
	svc := NewMessageService(&messageRepoStub{}, nil, nil, nil)

	_, err := svc.Reply(context.Background(), "ghost", ReplyRequest{Subject: "Re", Body: "x"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound.Code))
}
