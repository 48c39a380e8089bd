package models

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxMessageLength caps chat bodies in characters, for REST and sockets alike.
const MaxMessageLength = 2000

func MessageTooLong(body string) bool {
	return utf8.RuneCountInString(body) > MaxMessageLength
}

type DirectMessage struct {
	ID          int64     `db:"id" json:"id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Body        string    `db:"body" json:"message"`
	SentAt      time.Time `db:"sent_at" json:"sent_at"`
}

type EventMessage struct {
	ID       int64     `db:"id" json:"id"`
	EventID  int64     `db:"event_id" json:"event_id"`
	SenderID string    `db:"sender_id" json:"sender_id"`
	Body     string    `db:"body" json:"message"`
	SentAt   time.Time `db:"sent_at" json:"sent_at"`
}

type MessageRepo interface {
	SaveDirectMessage(ctx context.Context, msg *DirectMessage) (*DirectMessage, error)
	DirectHistory(ctx context.Context, userID, peerID string) ([]*DirectMessage, error)
	SaveEventMessage(ctx context.Context, msg *EventMessage) (*EventMessage, error)
	EventHistory(ctx context.Context, eventID int64) ([]*EventMessage, error)
}

func (r *SQLRepo) SaveDirectMessage(ctx context.Context, msg *DirectMessage) (*DirectMessage, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO direct_messages (sender_id, recipient_id, body, sent_at) VALUES ($1, $2, $3, $4) RETURNING id",
		msg.SenderID, msg.RecipientID, msg.Body, msg.SentAt,
	).Scan(&msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save direct message: %w", err)
	}
	return msg, nil
}

// DirectHistory returns the conversation between two users in both
// directions, oldest first.
func (r *SQLRepo) DirectHistory(ctx context.Context, userID, peerID string) ([]*DirectMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, recipient_id, body, sent_at
		 FROM direct_messages
		 WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		 ORDER BY sent_at ASC, id ASC`,
		userID, peerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load direct history: %w", err)
	}
	defer rows.Close()

	history := []*DirectMessage{}
	for rows.Next() {
		var m DirectMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan direct message: %w", err)
		}
		history = append(history, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("direct message rows error: %w", err)
	}
	return history, nil
}

func (r *SQLRepo) SaveEventMessage(ctx context.Context, msg *EventMessage) (*EventMessage, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO event_messages (event_id, sender_id, body, sent_at) VALUES ($1, $2, $3, $4) RETURNING id",
		msg.EventID, msg.SenderID, msg.Body, msg.SentAt,
	).Scan(&msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save event message: %w", err)
	}
	return msg, nil
}

func (r *SQLRepo) EventHistory(ctx context.Context, eventID int64) ([]*EventMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, sender_id, body, sent_at
		 FROM event_messages
		 WHERE event_id = $1
		 ORDER BY sent_at ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load event history: %w", err)
	}
	defer rows.Close()

	history := []*EventMessage{}
	for rows.Next() {
		var m EventMessage
		if err := rows.Scan(&m.ID, &m.EventID, &m.SenderID, &m.Body, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan event message: %w", err)
		}
		history = append(history, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event message rows error: %w", err)
	}
	return history, nil
}
