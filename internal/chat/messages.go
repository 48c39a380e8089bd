package chat

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sunity/api/internal/models"
)

const (
	TypeDirectMessage = "direct_message"
	TypeEventMessage  = "event_message"
)

// Outbound is the frame pushed to clients for both routes.
type Outbound struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id,omitempty"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id,omitempty"`
	Message     string    `json:"message"`
	SentAt      time.Time `json:"sent_at"`
}

// inbound accepts the legacy "mensaje" field next to "message".
type inbound struct {
	Message *string `json:"message"`
	Mensaje *string `json:"mensaje"`
}

// decodeInbound returns the message body of a client frame. ok is false when
// the frame is not a JSON object.
func decodeInbound(frame []byte) (body string, ok bool) {
	var in inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		return "", false
	}
	switch {
	case in.Message != nil:
		return *in.Message, true
	case in.Mensaje != nil:
		return *in.Mensaje, true
	default:
		return "", true
	}
}

func isBlank(body string) bool {
	return strings.TrimSpace(body) == ""
}

func EncodeDirect(m *models.DirectMessage) ([]byte, error) {
	return json.Marshal(Outbound{
		Type:        TypeDirectMessage,
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Message:     m.Body,
		SentAt:      m.SentAt,
	})
}

func EncodeEvent(m *models.EventMessage) ([]byte, error) {
	return json.Marshal(Outbound{
		Type:     TypeEventMessage,
		ID:       m.ID,
		EventID:  m.EventID,
		SenderID: m.SenderID,
		Message:  m.Body,
		SentAt:   m.SentAt,
	})
}
