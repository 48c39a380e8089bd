package services

import (
	"context"

	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
)

type RatingService struct {
	users   models.UserRepo
	events  models.EventRepo
	ratings models.RatingRepo
}

func NewRatingService(users models.UserRepo, events models.EventRepo, ratings models.RatingRepo) *RatingService {
	return &RatingService{users: users, events: events, ratings: ratings}
}

func (s *RatingService) Rate(ctx context.Context, raterID string, rating *models.Rating) (*models.Rating, error) {
	if rating.RatedID == raterID {
		return nil, helpers.Validation("cannot rate yourself")
	}
	if err := models.Validate.Struct(rating); err != nil {
		return nil, validationError(err)
	}

	ok, err := s.users.UserExists(ctx, rating.RatedID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	if !ok {
		return nil, helpers.NotFound("rated user not found")
	}
	if rating.EventID != nil {
		if _, err := s.events.GetEvent(ctx, *rating.EventID); err != nil {
			return nil, storeError(err, "event not found")
		}
	}

	rating.RaterID = raterID
	rating.CreatedAt = now()
	created, err := s.ratings.CreateRating(ctx, rating)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return created, nil
}

func (s *RatingService) Summary(ctx context.Context, ratedID string) (*models.RatingSummary, error) {
	ok, err := s.users.UserExists(ctx, ratedID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	if !ok {
		return nil, helpers.NotFound("user not found")
	}
	summary, err := s.ratings.RatingsFor(ctx, ratedID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return summary, nil
}
