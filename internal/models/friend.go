package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sunity/api/internal/helpers"
)

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// FriendStatus describes the relationship between the caller and another user.
type FriendStatus string

const (
	StatusNone            FriendStatus = "none"
	StatusRequestSent     FriendStatus = "request_sent"
	StatusRequestReceived FriendStatus = "request_received"
	StatusFriends         FriendStatus = "friends"
)

type FriendRequest struct {
	ID          int64      `db:"id" json:"id"`
	RequesterID string     `db:"requester_id" json:"requester_id"`
	RecipientID string     `db:"recipient_id" json:"recipient_id"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	RespondedAt *time.Time `db:"responded_at" json:"responded_at,omitempty"`

	// Display fields of the other party, filled by the listing queries.
	PeerName      string `json:"peer_name,omitempty"`
	PeerAvatarURL string `json:"peer_avatar_url,omitempty"`
}

type Friend struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Since     time.Time `json:"since"`
}

type FriendRepo interface {
	CreateFriendRequest(ctx context.Context, requesterID, recipientID string, now time.Time) (*FriendRequest, error)
	GetFriendRequest(ctx context.Context, id int64) (*FriendRequest, error)
	PendingRequest(ctx context.Context, requesterID, recipientID string) (*FriendRequest, error)
	ListReceivedRequests(ctx context.Context, userID string) ([]*FriendRequest, error)
	ListSentRequests(ctx context.Context, userID string) ([]*FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, id int64, recipientID string, now time.Time) error
	RejectFriendRequest(ctx context.Context, id int64, recipientID string) error
	CancelFriendRequest(ctx context.Context, requesterID, recipientID string) error
	ListFriends(ctx context.Context, userID string) ([]*Friend, error)
	RemoveFriend(ctx context.Context, userID, friendID string) error
	FriendshipStatus(ctx context.Context, viewerID, otherID string) (FriendStatus, error)
}

const requestColumns = "r.id, r.requester_id, r.recipient_id, r.status, r.created_at, r.responded_at"

func scanRequest(row interface{ Scan(...interface{}) error }, extra ...interface{}) (*FriendRequest, error) {
	var fr FriendRequest
	var responded sql.NullTime
	dest := append([]interface{}{&fr.ID, &fr.RequesterID, &fr.RecipientID, &fr.Status, &fr.CreatedAt, &responded}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if responded.Valid {
		t := responded.Time
		fr.RespondedAt = &t
	}
	return &fr, nil
}

func friendshipExists(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}, a, b string) (bool, error) {
	low, high := helpers.CanonicalPair(a, b)
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM friendships WHERE user_low = $1 AND user_high = $2",
		low, high,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return n > 0, nil
}

// CreateFriendRequest inserts a pending request. The partial unique index on
// the canonical pair rejects a second pending request in either direction.
func (r *SQLRepo) CreateFriendRequest(ctx context.Context, requesterID, recipientID string, now time.Time) (*FriendRequest, error) {
	low, high := helpers.CanonicalPair(requesterID, recipientID)
	fr := &FriendRequest{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      RequestPending,
		CreatedAt:   now,
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		friends, err := friendshipExists(ctx, tx, requesterID, recipientID)
		if err != nil {
			return err
		}
		if friends {
			return ErrAlreadyFriends
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO friend_requests (requester_id, recipient_id, user_low, user_high, status, created_at)
			 VALUES ($1, $2, $3, $4, 'pending', $5)
			 ON CONFLICT DO NOTHING
			 RETURNING id`,
			requesterID, recipientID, low, high, now,
		).Scan(&fr.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDuplicateRequest
		}
		if err != nil {
			return fmt.Errorf("failed to insert friend request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fr, nil
}

func (r *SQLRepo) GetFriendRequest(ctx context.Context, id int64) (*FriendRequest, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM friend_requests r WHERE r.id = $1", id)
	fr, err := scanRequest(row)
	if err != nil {
		return nil, notFoundOr(err, "failed to get friend request %d", id)
	}
	return fr, nil
}

func (r *SQLRepo) PendingRequest(ctx context.Context, requesterID, recipientID string) (*FriendRequest, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM friend_requests r WHERE r.requester_id = $1 AND r.recipient_id = $2 AND r.status = 'pending'",
		requesterID, recipientID,
	)
	fr, err := scanRequest(row)
	if err != nil {
		return nil, notFoundOr(err, "failed to get pending request")
	}
	return fr, nil
}

func (r *SQLRepo) listRequests(ctx context.Context, query, userID string) ([]*FriendRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	defer rows.Close()

	requests := []*FriendRequest{}
	for rows.Next() {
		var name, avatar string
		fr, err := scanRequest(rows, &name, &avatar)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		fr.PeerName, fr.PeerAvatarURL = name, avatar
		requests = append(requests, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("friend request rows error: %w", err)
	}
	return requests, nil
}

func (r *SQLRepo) ListReceivedRequests(ctx context.Context, userID string) ([]*FriendRequest, error) {
	return r.listRequests(ctx,
		`SELECT `+requestColumns+`, u.name, u.avatar_url
		 FROM friend_requests r
		 JOIN users u ON u.id = r.requester_id
		 WHERE r.recipient_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at DESC, r.id DESC`,
		userID)
}

func (r *SQLRepo) ListSentRequests(ctx context.Context, userID string) ([]*FriendRequest, error) {
	return r.listRequests(ctx,
		`SELECT `+requestColumns+`, u.name, u.avatar_url
		 FROM friend_requests r
		 JOIN users u ON u.id = r.recipient_id
		 WHERE r.requester_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at DESC, r.id DESC`,
		userID)
}

// AcceptFriendRequest marks a pending request accepted and records the
// friendship in the same transaction.
func (r *SQLRepo) AcceptFriendRequest(ctx context.Context, id int64, recipientID string, now time.Time) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var low, high string
		err := tx.QueryRowContext(ctx,
			`UPDATE friend_requests SET status = 'accepted', responded_at = $1
			 WHERE id = $2 AND recipient_id = $3 AND status = 'pending'
			 RETURNING user_low, user_high`,
			now, id, recipientID,
		).Scan(&low, &high)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRequestNotPending
		}
		if err != nil {
			return fmt.Errorf("failed to accept friend request: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO friendships (user_low, user_high, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
			low, high, now,
		); err != nil {
			return fmt.Errorf("failed to insert friendship: %w", err)
		}
		return nil
	})
}

// RejectFriendRequest deletes the pending request so the pair may try again.
func (r *SQLRepo) RejectFriendRequest(ctx context.Context, id int64, recipientID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM friend_requests WHERE id = $1 AND recipient_id = $2 AND status = 'pending'",
		id, recipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to reject friend request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRequestNotPending
	}
	return nil
}

func (r *SQLRepo) CancelFriendRequest(ctx context.Context, requesterID, recipientID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM friend_requests WHERE requester_id = $1 AND recipient_id = $2 AND status = 'pending'",
		requesterID, recipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel friend request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepo) ListFriends(ctx context.Context, userID string) ([]*Friend, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.avatar_url, f.created_at
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.user_low = $1 THEN f.user_high ELSE f.user_low END
		 WHERE f.user_low = $1 OR f.user_high = $1
		 ORDER BY u.name ASC, u.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	friends := []*Friend{}
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.UserID, &f.Name, &f.AvatarURL, &f.Since); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("friend rows error: %w", err)
	}
	return friends, nil
}

// RemoveFriend drops the friendship and every request row for the pair.
func (r *SQLRepo) RemoveFriend(ctx context.Context, userID, friendID string) error {
	low, high := helpers.CanonicalPair(userID, friendID)
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM friendships WHERE user_low = $1 AND user_high = $2",
			low, high,
		)
		if err != nil {
			return fmt.Errorf("failed to delete friendship: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM friend_requests WHERE user_low = $1 AND user_high = $2",
			low, high,
		); err != nil {
			return fmt.Errorf("failed to purge friend requests: %w", err)
		}
		return nil
	})
}

func (r *SQLRepo) FriendshipStatus(ctx context.Context, viewerID, otherID string) (FriendStatus, error) {
	friends, err := friendshipExists(ctx, r.db, viewerID, otherID)
	if err != nil {
		return "", err
	}
	if friends {
		return StatusFriends, nil
	}

	low, high := helpers.CanonicalPair(viewerID, otherID)
	var requester string
	err = r.db.QueryRowContext(ctx,
		"SELECT requester_id FROM friend_requests WHERE user_low = $1 AND user_high = $2 AND status = 'pending'",
		low, high,
	).Scan(&requester)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return StatusNone, nil
	case err != nil:
		return "", fmt.Errorf("failed to check friend request: %w", err)
	case requester == viewerID:
		return StatusRequestSent, nil
	default:
		return StatusRequestReceived, nil
	}
}
