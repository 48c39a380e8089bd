package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sunity/api/internal/models"
)

// EventKey identifies one participant's socket in one event chat.
type EventKey struct {
	EventID int64
	UserID  string
}

type EventStore interface {
	Pinger
	SaveEventMessage(ctx context.Context, msg *models.EventMessage) (*models.EventMessage, error)
}

type EventRoute struct {
	*Router[EventKey]
	store EventStore
}

func NewEventRoute(store EventStore, opts ConnOptions, logger *slog.Logger) *EventRoute {
	return &EventRoute{
		Router: newRouter[EventKey]("event", store, opts, logger),
		store:  store,
	}
}

// Serve runs key.UserID's session in key.EventID's chat. Callers check
// participation before upgrading.
func (e *EventRoute) Serve(ctx context.Context, ws *websocket.Conn, key EventKey) {
	e.serve(ctx, ws, session[EventKey]{
		key: key,
		persist: func(ctx context.Context, body string, sentAt time.Time) ([]byte, error) {
			msg, err := e.store.SaveEventMessage(ctx, &models.EventMessage{
				EventID:  key.EventID,
				SenderID: key.UserID,
				Body:     body,
				SentAt:   sentAt,
			})
			if err != nil {
				return nil, err
			}
			return EncodeEvent(msg)
		},
		deliver: func(_ Channel, payload []byte) int {
			return e.broadcast(key.EventID, payload)
		},
	})
}

// Broadcast pushes an already stored message to every live socket of its
// event, sender included.
func (e *EventRoute) Broadcast(msg *models.EventMessage) int {
	payload, err := EncodeEvent(msg)
	if err != nil {
		return 0
	}
	return e.broadcast(msg.EventID, payload)
}

func (e *EventRoute) broadcast(eventID int64, payload []byte) int {
	return e.registry.Broadcast(func(k EventKey) bool { return k.EventID == eventID }, payload)
}

// Kick closes userID's sockets in eventID's chat with a policy violation,
// for participants who left the event.
func (e *EventRoute) Kick(eventID int64, userID string) int {
	n := e.closeKey(EventKey{EventID: eventID, UserID: userID}, websocket.ClosePolicyViolation, "no longer a participant")
	if n > 0 {
		e.logger.Info("Closed event chat for departed participant", "event_id", eventID, "user_id", userID)
	}
	return n
}
