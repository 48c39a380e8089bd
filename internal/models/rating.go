package models

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

type Rating struct {
	ID        int64     `db:"id" json:"id"`
	RaterID   string    `db:"rater_id" json:"rater_id"`
	RatedID   string    `db:"rated_id" json:"rated_id" validate:"required"`
	EventID   *int64    `db:"event_id" json:"event_id,omitempty" validate:"omitempty,gt=0"`
	Stars     int       `db:"stars" json:"stars" validate:"required,min=1,max=5"`
	Comment   string    `db:"comment" json:"comment" validate:"max=1000"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	RaterName string `json:"rater_name,omitempty"`
}

// RatingSummary aggregates every rating a user has received.
type RatingSummary struct {
	RatedID string    `json:"rated_id"`
	Average float64   `json:"average"`
	Total   int       `json:"total"`
	Ratings []*Rating `json:"ratings"`
}

type RatingRepo interface {
	CreateRating(ctx context.Context, rating *Rating) (*Rating, error)
	RatingsFor(ctx context.Context, ratedID string) (*RatingSummary, error)
}

func (r *SQLRepo) CreateRating(ctx context.Context, rating *Rating) (*Rating, error) {
	var eventID sql.NullInt64
	if rating.EventID != nil {
		eventID = sql.NullInt64{Int64: *rating.EventID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO ratings (rater_id, rated_id, event_id, stars, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		rating.RaterID, rating.RatedID, eventID, rating.Stars, rating.Comment, rating.CreatedAt,
	).Scan(&rating.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert rating: %w", err)
	}
	return rating, nil
}

// RatingsFor lists received ratings newest first. The average is rounded to
// two decimals and is zero when nobody has rated the user yet.
func (r *SQLRepo) RatingsFor(ctx context.Context, ratedID string) (*RatingSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.rater_id, r.rated_id, r.event_id, r.stars, r.comment, r.created_at, u.name
		 FROM ratings r
		 JOIN users u ON u.id = r.rater_id
		 WHERE r.rated_id = $1
		 ORDER BY r.created_at DESC, r.id DESC`,
		ratedID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	summary := &RatingSummary{RatedID: ratedID, Ratings: []*Rating{}}
	sum := 0
	for rows.Next() {
		var rt Rating
		var eventID sql.NullInt64
		if err := rows.Scan(&rt.ID, &rt.RaterID, &rt.RatedID, &eventID, &rt.Stars, &rt.Comment, &rt.CreatedAt, &rt.RaterName); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		if eventID.Valid {
			id := eventID.Int64
			rt.EventID = &id
		}
		sum += rt.Stars
		summary.Ratings = append(summary.Ratings, &rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rating rows error: %w", err)
	}

	summary.Total = len(summary.Ratings)
	if summary.Total > 0 {
		summary.Average = math.Round(float64(sum)/float64(summary.Total)*100) / 100
	}
	return summary, nil
}
