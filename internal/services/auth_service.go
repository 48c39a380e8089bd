package services

import (
	"context"
	"errors"
	"time"

	"github.com/sunity/api/internal/auth"
	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
)

type AuthService struct {
	users    models.UserRepo
	verifier auth.IdentityVerifier
	sessions *auth.SessionManager
}

func NewAuthService(users models.UserRepo, verifier auth.IdentityVerifier, sessions *auth.SessionManager) *AuthService {
	return &AuthService{users: users, verifier: verifier, sessions: sessions}
}

type LoginResult struct {
	FirstLogin bool         `json:"first_login"`
	Token      string       `json:"token"`
	ExpiresAt  time.Time    `json:"expires_at"`
	User       *models.User `json:"user"`
}

// LoginWithGoogle verifies a Google ID token, creates the user on first
// sign-in and issues a session.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	id, err := s.verifier.Verify(ctx, idToken)
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return nil, helpers.Unauthenticated("id_token is required")
	case errors.Is(err, auth.ErrInvalidCredential):
		return nil, &helpers.AppError{Kind: helpers.KindUnauthenticated, Reason: "invalid Google token", Err: err}
	case err != nil:
		return nil, helpers.Internal(err)
	}

	ts := now()
	first, err := s.users.UpsertUser(ctx, &models.User{
		ID:        id.Subject,
		Email:     id.Email,
		Name:      id.Name,
		AvatarURL: id.Picture,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return nil, helpers.Internal(err)
	}
	user, err := s.users.GetUser(ctx, id.Subject)
	if err != nil {
		return nil, helpers.Internal(err)
	}

	token, expires, err := s.sessions.Issue(id)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return &LoginResult{FirstLogin: first, Token: token, ExpiresAt: expires, User: user}, nil
}

// Authenticate resolves a session token to the caller's claims.
func (s *AuthService) Authenticate(token string) (*helpers.UserClaims, error) {
	claims, err := s.sessions.Parse(token)
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return nil, helpers.Unauthenticated("authentication required")
	case err != nil:
		return nil, &helpers.AppError{Kind: helpers.KindUnauthenticated, Reason: "invalid or expired session", Err: err}
	}
	return &helpers.UserClaims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.Picture,
	}, nil
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}
