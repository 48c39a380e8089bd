package services

import (
	"context"
	"io"

	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
	"github.com/sunity/api/internal/storage"
)

type UserService struct {
	users          models.UserRepo
	ratings        models.RatingRepo
	blobs          storage.BlobStore
	maxUploadBytes int64
}

func NewUserService(users models.UserRepo, ratings models.RatingRepo, blobs storage.BlobStore, maxUploadBytes int64) *UserService {
	return &UserService{users: users, ratings: ratings, blobs: blobs, maxUploadBytes: maxUploadBytes}
}

// PublicProfile is what other users see.
type PublicProfile struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	AvatarURL string                `json:"avatar_url"`
	Region    string                `json:"region"`
	Commune   string                `json:"commune"`
	Ratings   *models.RatingSummary `json:"ratings"`
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user not found")
	}
	return user, nil
}

// ProfileField returns a single profile attribute by its public name.
func (s *UserService) ProfileField(ctx context.Context, userID, field string) (string, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	switch field {
	case "photo":
		return user.AvatarURL, nil
	case "phone":
		return user.Phone, nil
	case "region":
		return user.Region, nil
	case "commune":
		return user.Commune, nil
	case "name":
		return user.Name, nil
	case "email":
		return user.Email, nil
	default:
		return "", helpers.Validation("unknown profile field %q", field)
	}
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return nil, helpers.Validation("no fields to update")
	}
	if err := models.Validate.Struct(update); err != nil {
		return nil, validationError(err)
	}
	user, err := s.users.UpdateProfile(ctx, userID, update, now())
	if err != nil {
		return nil, storeError(err, "user not found")
	}
	return user, nil
}

// UploadAvatar stores an image and points the user's avatar at it.
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (string, error) {
	if size <= 0 {
		return "", helpers.Validation("file is empty")
	}
	if s.maxUploadBytes > 0 && size > s.maxUploadBytes {
		return "", helpers.Validation("file exceeds %d bytes", s.maxUploadBytes)
	}
	name, err := helpers.AvatarFilename(userID, filename)
	if err != nil {
		return "", helpers.Validation("%v", err)
	}

	url, err := s.blobs.Put(ctx, helpers.AvatarFolder, name, contentType, r)
	if err != nil {
		return "", helpers.Internal(err)
	}
	if err := s.users.UpdateAvatar(ctx, userID, url, now()); err != nil {
		return "", storeError(err, "user not found")
	}
	return url, nil
}

func (s *UserService) PublicProfile(ctx context.Context, userID string) (*PublicProfile, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary, err := s.ratings.RatingsFor(ctx, userID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return &PublicProfile{
		ID:        user.ID,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Region:    user.Region,
		Commune:   user.Commune,
		Ratings:   summary,
	}, nil
}
