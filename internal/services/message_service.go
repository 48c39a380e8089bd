package services

import (
	"context"

	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
)

// LiveDelivery pushes stored messages to connected sockets.
type LiveDelivery interface {
	DeliverDirect(msg *models.DirectMessage) bool
	BroadcastEvent(msg *models.EventMessage) int
}

type MessageService struct {
	users    models.UserRepo
	events   *EventService
	messages models.MessageRepo
	live     LiveDelivery
}

func NewMessageService(users models.UserRepo, events *EventService, messages models.MessageRepo, live LiveDelivery) *MessageService {
	return &MessageService{users: users, events: events, messages: messages, live: live}
}

func checkBody(body string) error {
	if helpers.IsBlank(body) {
		return helpers.Validation("message cannot be empty")
	}
	if models.MessageTooLong(body) {
		return helpers.Validation("message exceeds %d characters", models.MaxMessageLength)
	}
	return nil
}

// CanChatWith checks that ownerID may open a direct conversation with peerID.
func (s *MessageService) CanChatWith(ctx context.Context, ownerID, peerID string) error {
	if helpers.IsBlank(peerID) {
		return helpers.Validation("recipient is required")
	}
	if ownerID == peerID {
		return helpers.Validation("cannot chat with yourself")
	}
	ok, err := s.users.UserExists(ctx, peerID)
	if err != nil {
		return helpers.Internal(err)
	}
	if !ok {
		return helpers.NotFound("recipient not found")
	}
	return nil
}

func (s *MessageService) SendDirect(ctx context.Context, senderID, recipientID, body string) (*models.DirectMessage, error) {
	if err := s.CanChatWith(ctx, senderID, recipientID); err != nil {
		return nil, err
	}
	if err := checkBody(body); err != nil {
		return nil, err
	}
	msg, err := s.messages.SaveDirectMessage(ctx, &models.DirectMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		SentAt:      now(),
	})
	if err != nil {
		return nil, helpers.Internal(err)
	}
	s.live.DeliverDirect(msg)
	return msg, nil
}

func (s *MessageService) DirectHistory(ctx context.Context, userID, peerID string) ([]*models.DirectMessage, error) {
	history, err := s.messages.DirectHistory(ctx, userID, peerID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return history, nil
}

func (s *MessageService) SendEvent(ctx context.Context, senderID string, eventID int64, body string) (*models.EventMessage, error) {
	if err := s.events.RequireParticipant(ctx, eventID, senderID); err != nil {
		return nil, err
	}
	if err := checkBody(body); err != nil {
		return nil, err
	}
	msg, err := s.messages.SaveEventMessage(ctx, &models.EventMessage{
		EventID:  eventID,
		SenderID: senderID,
		Body:     body,
		SentAt:   now(),
	})
	if err != nil {
		return nil, helpers.Internal(err)
	}
	s.live.BroadcastEvent(msg)
	return msg, nil
}

func (s *MessageService) EventHistory(ctx context.Context, userID string, eventID int64) ([]*models.EventMessage, error) {
	if err := s.events.RequireParticipant(ctx, eventID, userID); err != nil {
		return nil, err
	}
	history, err := s.messages.EventHistory(ctx, eventID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return history, nil
}
