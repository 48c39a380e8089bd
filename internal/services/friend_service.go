package services

import (
	"context"
	"errors"

	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
)

type FriendService struct {
	users   models.UserRepo
	friends models.FriendRepo
}

func NewFriendService(users models.UserRepo, friends models.FriendRepo) *FriendService {
	return &FriendService{users: users, friends: friends}
}

func (s *FriendService) requireUser(ctx context.Context, userID string) error {
	ok, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return helpers.Internal(err)
	}
	if !ok {
		return helpers.NotFound("user not found")
	}
	return nil
}

func (s *FriendService) SendRequest(ctx context.Context, requesterID, recipientID string) (*models.FriendRequest, error) {
	if helpers.IsBlank(recipientID) {
		return nil, helpers.Validation("recipient_id is required")
	}
	if requesterID == recipientID {
		return nil, helpers.Conflict("cannot send a friend request to yourself")
	}
	if err := s.requireUser(ctx, recipientID); err != nil {
		return nil, err
	}

	req, err := s.friends.CreateFriendRequest(ctx, requesterID, recipientID, now())
	switch {
	case errors.Is(err, models.ErrAlreadyFriends):
		return nil, helpers.Conflict("you are already friends")
	case errors.Is(err, models.ErrDuplicateRequest):
		return nil, helpers.Conflict("a friend request between you is already pending")
	case err != nil:
		return nil, helpers.Internal(err)
	}
	return req, nil
}

func (s *FriendService) Received(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	reqs, err := s.friends.ListReceivedRequests(ctx, userID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return reqs, nil
}

func (s *FriendService) Sent(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	reqs, err := s.friends.ListSentRequests(ctx, userID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return reqs, nil
}

// Respond accepts or rejects a request addressed to responderID.
func (s *FriendService) Respond(ctx context.Context, requestID int64, responderID string, accept bool) error {
	req, err := s.friends.GetFriendRequest(ctx, requestID)
	if err != nil {
		return storeError(err, "friend request not found")
	}
	if req.RecipientID != responderID {
		return helpers.Forbidden("only the recipient can respond to a friend request")
	}
	if req.Status != models.RequestPending {
		return helpers.Conflict("friend request is no longer pending")
	}

	if accept {
		err = s.friends.AcceptFriendRequest(ctx, requestID, responderID, now())
	} else {
		err = s.friends.RejectFriendRequest(ctx, requestID, responderID)
	}
	if errors.Is(err, models.ErrRequestNotPending) {
		return helpers.Conflict("friend request is no longer pending")
	}
	if err != nil {
		return helpers.Internal(err)
	}
	return nil
}

// AcceptFrom accepts the pending request requesterID sent to responderID.
func (s *FriendService) AcceptFrom(ctx context.Context, responderID, requesterID string) error {
	req, err := s.friends.PendingRequest(ctx, requesterID, responderID)
	if err != nil {
		return storeError(err, "no pending request from that user")
	}
	return s.Respond(ctx, req.ID, responderID, true)
}

func (s *FriendService) Cancel(ctx context.Context, requesterID, recipientID string) error {
	if err := s.friends.CancelFriendRequest(ctx, requesterID, recipientID); err != nil {
		return storeError(err, "no pending request to that user")
	}
	return nil
}

func (s *FriendService) Friends(ctx context.Context, userID string) ([]*models.Friend, error) {
	friends, err := s.friends.ListFriends(ctx, userID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return friends, nil
}

func (s *FriendService) Remove(ctx context.Context, userID, friendID string) error {
	if err := s.friends.RemoveFriend(ctx, userID, friendID); err != nil {
		return storeError(err, "you are not friends with that user")
	}
	return nil
}

func (s *FriendService) Status(ctx context.Context, viewerID, otherID string) (models.FriendStatus, error) {
	if viewerID == otherID {
		return "", helpers.Validation("cannot check friendship with yourself")
	}
	status, err := s.friends.FriendshipStatus(ctx, viewerID, otherID)
	if err != nil {
		return "", helpers.Internal(err)
	}
	return status, nil
}
