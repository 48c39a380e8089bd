package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sunity/api/internal/models"
)

type DirectStore interface {
	Pinger
	SaveDirectMessage(ctx context.Context, msg *models.DirectMessage) (*models.DirectMessage, error)
}

// DirectRoute carries one-to-one messages. Sockets are keyed by their owner's
// user id, so a user has one live direct socket at a time.
type DirectRoute struct {
	*Router[string]
	store DirectStore
}

func NewDirectRoute(store DirectStore, opts ConnOptions, logger *slog.Logger) *DirectRoute {
	return &DirectRoute{
		Router: newRouter[string]("direct", store, opts, logger),
		store:  store,
	}
}

// Serve runs ownerID's conversation with peerID on ws until it closes.
func (d *DirectRoute) Serve(ctx context.Context, ws *websocket.Conn, ownerID, peerID string) {
	d.serve(ctx, ws, session[string]{
		key: ownerID,
		persist: func(ctx context.Context, body string, sentAt time.Time) ([]byte, error) {
			msg, err := d.store.SaveDirectMessage(ctx, &models.DirectMessage{
				SenderID:    ownerID,
				RecipientID: peerID,
				Body:        body,
				SentAt:      sentAt,
			})
			if err != nil {
				return nil, err
			}
			return EncodeDirect(msg)
		},
		deliver: func(self Channel, payload []byte) int {
			delivered := 0
			if peer, ok := d.registry.Lookup(peerID); ok {
				if err := peer.Send(payload); err == nil {
					delivered++
				}
			}
			if err := self.Send(payload); err == nil {
				delivered++
			}
			return delivered
		},
	})
}

// Deliver pushes an already stored message to the recipient's socket, if one
// is registered.
func (d *DirectRoute) Deliver(msg *models.DirectMessage) bool {
	peer, ok := d.registry.Lookup(msg.RecipientID)
	if !ok {
		return false
	}
	payload, err := EncodeDirect(msg)
	if err != nil {
		return false
	}
	return peer.Send(payload) == nil
}
