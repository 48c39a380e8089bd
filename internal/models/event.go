package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const MaxEventPrice = 10000

type Event struct {
	ID               int64     `db:"id" json:"id"`
	GroupID          int64     `db:"group_id" json:"group_id" validate:"required,gt=0"`
	HostID           string    `db:"host_id" json:"host_id"`
	Name             string    `db:"name" json:"name" validate:"required,min=2,max=120"`
	Description      string    `db:"description" json:"description" validate:"max=2000"`
	StartsAt         time.Time `db:"starts_at" json:"starts_at"`
	Location         string    `db:"location" json:"location" validate:"max=255"`
	Latitude         float64   `db:"latitude" json:"latitude" validate:"latitude"`
	Longitude        float64   `db:"longitude" json:"longitude" validate:"longitude"`
	Capacity         int       `db:"capacity" json:"capacity"`
	Price            int       `db:"price" json:"price"`
	ParticipantCount int       `db:"participant_count" json:"participant_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type Participant struct {
	EventID   int64     `db:"event_id" json:"event_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	IsHost    bool      `db:"is_host" json:"is_host"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
}

type EventRepo interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	ListEventsByGroup(ctx context.Context, groupID int64) ([]*Event, error)
	ListEventsForUser(ctx context.Context, userID string) ([]*Event, error)
	JoinEvent(ctx context.Context, eventID int64, userID string, now time.Time) error
	LeaveEvent(ctx context.Context, eventID int64, userID string) error
	IsParticipant(ctx context.Context, eventID int64, userID string) (bool, error)
	ListParticipants(ctx context.Context, eventID int64) ([]*Participant, error)
}

const eventColumns = "e.id, e.group_id, e.host_id, e.name, e.description, e.starts_at, e.location, e.latitude, e.longitude, e.capacity, e.price, e.participant_count, e.created_at"

func scanEvent(row interface{ Scan(...interface{}) error }) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.GroupID, &e.HostID, &e.Name, &e.Description, &e.StartsAt, &e.Location,
		&e.Latitude, &e.Longitude, &e.Capacity, &e.Price, &e.ParticipantCount, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *SQLRepo) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event rows error: %w", err)
	}
	return events, nil
}

// CreateEvent stores the event and enrolls its host in one transaction, so an
// event never exists without its host participation row.
func (r *SQLRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO events (group_id, host_id, name, description, starts_at, location, latitude, longitude, capacity, price, participant_count, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11)
			 RETURNING id`,
			event.GroupID, event.HostID, event.Name, event.Description, event.StartsAt, event.Location,
			event.Latitude, event.Longitude, event.Capacity, event.Price, event.CreatedAt,
		).Scan(&event.ID)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO event_participants (event_id, user_id, is_host, joined_at) VALUES ($1, $2, TRUE, $3)",
			event.ID, event.HostID, event.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to enroll host: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.ParticipantCount = 1
	return event, nil
}

func (r *SQLRepo) GetEvent(ctx context.Context, id int64) (*Event, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events e WHERE e.id = $1", id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, notFoundOr(err, "failed to get event %d", id)
	}
	return e, nil
}

func (r *SQLRepo) ListEventsByGroup(ctx context.Context, groupID int64) ([]*Event, error) {
	return r.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events e WHERE e.group_id = $1 ORDER BY e.starts_at ASC, e.id ASC",
		groupID)
}

func (r *SQLRepo) ListEventsForUser(ctx context.Context, userID string) ([]*Event, error) {
	return r.queryEvents(ctx,
		`SELECT `+eventColumns+`
		 FROM events e
		 JOIN event_participants p ON p.event_id = e.id
		 WHERE p.user_id = $1
		 ORDER BY e.starts_at ASC, e.id ASC`,
		userID)
}

// JoinEvent enrolls a participant. The participation insert and the capacity
// bump run in one transaction; the conditional UPDATE is what keeps the
// participant count from ever passing capacity under concurrent joins.
func (r *SQLRepo) JoinEvent(ctx context.Context, eventID int64, userID string, now time.Time) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO event_participants (event_id, user_id, is_host, joined_at)
			 VALUES ($1, $2, FALSE, $3)
			 ON CONFLICT (event_id, user_id) DO NOTHING`,
			eventID, userID, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participation: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrAlreadyJoined
		}

		res, err = tx.ExecContext(ctx,
			"UPDATE events SET participant_count = participant_count + 1 WHERE id = $1 AND participant_count < capacity",
			eventID,
		)
		if err != nil {
			return fmt.Errorf("failed to reserve seat: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrEventFull
		}
		return nil
	})
}

// LeaveEvent removes a non-host participation and frees the seat.
func (r *SQLRepo) LeaveEvent(ctx context.Context, eventID int64, userID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2 AND is_host = FALSE",
			eventID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete participation: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE events SET participant_count = participant_count - 1 WHERE id = $1 AND participant_count > 0",
			eventID,
		); err != nil {
			return fmt.Errorf("failed to release seat: %w", err)
		}
		return nil
	})
}

func (r *SQLRepo) IsParticipant(ctx context.Context, eventID int64, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_participants WHERE event_id = $1 AND user_id = $2",
		eventID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepo) ListParticipants(ctx context.Context, eventID int64) ([]*Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.event_id, p.user_id, u.name, u.avatar_url, p.is_host, p.joined_at
		 FROM event_participants p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.event_id = $1
		 ORDER BY p.joined_at ASC, p.user_id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []*Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.EventID, &p.UserID, &p.Name, &p.AvatarURL, &p.IsHost, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("participant rows error: %w", err)
	}
	return participants, nil
}
