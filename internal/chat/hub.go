package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sunity/api/internal/models"
)

// Store is everything the chat routes need from persistence.
type Store interface {
	DirectStore
	EventStore
}

// Hub owns both chat routes for the lifetime of the server.
type Hub struct {
	Direct *DirectRoute
	Events *EventRoute
	logger *slog.Logger
}

func NewHub(store Store, opts ConnOptions, logger *slog.Logger) *Hub {
	return &Hub{
		Direct: NewDirectRoute(store, opts, logger),
		Events: NewEventRoute(store, opts, logger),
		logger: logger,
	}
}

// Stats reports live connection counts per route.
func (h *Hub) Stats() map[string]int {
	return map[string]int{
		"direct": h.Direct.Registry().Len(),
		"event":  h.Events.Registry().Len(),
	}
}

// Shutdown closes every live socket and waits until each session has
// released its registration or ctx expires.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info("Closing chat connections", "direct", h.Direct.Registry().Len(), "event", h.Events.Registry().Len())
	return errors.Join(h.Direct.shutdown(ctx), h.Events.shutdown(ctx))
}

// DeliverDirect pushes a message stored outside a socket session to its
// recipient, if online.
func (h *Hub) DeliverDirect(msg *models.DirectMessage) bool {
	return h.Direct.Deliver(msg)
}

// BroadcastEvent pushes a stored event message to every live participant socket.
func (h *Hub) BroadcastEvent(msg *models.EventMessage) int {
	return h.Events.Broadcast(msg)
}

// CloseEventSession ends userID's live chat in eventID, if any.
func (h *Hub) CloseEventSession(eventID int64, userID string) int {
	return h.Events.Kick(eventID, userID)
}
