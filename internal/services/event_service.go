package services

import (
	"context"
	"errors"

	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
)

type GroupService struct {
	groups models.GroupRepo
	events models.EventRepo
}

func NewGroupService(groups models.GroupRepo, events models.EventRepo) *GroupService {
	return &GroupService{groups: groups, events: events}
}

func (s *GroupService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return groups, nil
}

func (s *GroupService) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	group.Name = helpers.StringTrim(group.Name)
	if err := models.Validate.Struct(group); err != nil {
		return nil, validationError(err)
	}
	group.CreatedAt = now()
	created, err := s.groups.CreateGroup(ctx, group)
	if errors.Is(err, models.ErrDuplicateGroup) {
		return nil, helpers.Conflict("a group with that name already exists")
	}
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return created, nil
}

func (s *GroupService) GroupEvents(ctx context.Context, groupID int64) ([]*models.Event, error) {
	ok, err := s.groups.GroupExists(ctx, groupID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	if !ok {
		return nil, helpers.NotFound("group not found")
	}
	events, err := s.events.ListEventsByGroup(ctx, groupID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return events, nil
}

// EventSessions closes live event chat sockets of users who are no longer
// participants.
type EventSessions interface {
	CloseEventSession(eventID int64, userID string) int
}

type EventService struct {
	groups   models.GroupRepo
	events   models.EventRepo
	sessions EventSessions
}

// NewEventService builds the service; sessions may be nil when no chat hub runs.
func NewEventService(groups models.GroupRepo, events models.EventRepo, sessions EventSessions) *EventService {
	return &EventService{groups: groups, events: events, sessions: sessions}
}

// CreateEvent stores a new event hosted by hostID. The host takes the first seat.
func (s *EventService) CreateEvent(ctx context.Context, hostID string, event *models.Event) (*models.Event, error) {
	event.Name = helpers.StringTrim(event.Name)
	if err := models.Validate.Struct(event); err != nil {
		return nil, validationError(err)
	}
	if event.StartsAt.IsZero() {
		return nil, helpers.Validation("starts_at is required")
	}
	if event.Capacity <= 0 {
		return nil, helpers.Validation("capacity must be greater than zero")
	}
	if event.Price < 0 || event.Price > models.MaxEventPrice {
		return nil, helpers.Validation("price must be between 0 and %d", models.MaxEventPrice)
	}

	ok, err := s.groups.GroupExists(ctx, event.GroupID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	if !ok {
		return nil, helpers.NotFound("group not found")
	}

	event.HostID = hostID
	event.StartsAt = event.StartsAt.UTC()
	event.CreatedAt = now()
	created, err := s.events.CreateEvent(ctx, event)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, storeError(err, "event not found")
	}
	return event, nil
}

func (s *EventService) JoinEvent(ctx context.Context, eventID int64, userID string) error {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.HostID == userID {
		return helpers.Conflict("the host is already part of the event")
	}

	err = s.events.JoinEvent(ctx, eventID, userID, now())
	switch {
	case errors.Is(err, models.ErrAlreadyJoined):
		return helpers.Conflict("already joined this event")
	case errors.Is(err, models.ErrEventFull):
		return helpers.Conflict("event is full")
	case err != nil:
		return helpers.Internal(err)
	}
	return nil
}

func (s *EventService) LeaveEvent(ctx context.Context, eventID int64, userID string) error {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.HostID == userID {
		return helpers.Conflict("the host cannot leave their own event")
	}
	if err := s.events.LeaveEvent(ctx, eventID, userID); err != nil {
		return storeError(err, "not a participant of this event")
	}
	if s.sessions != nil {
		s.sessions.CloseEventSession(eventID, userID)
	}
	return nil
}

func (s *EventService) MyEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	events, err := s.events.ListEventsForUser(ctx, userID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return events, nil
}

func (s *EventService) Participants(ctx context.Context, eventID int64) ([]*models.Participant, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	participants, err := s.events.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, helpers.Internal(err)
	}
	return participants, nil
}

// RequireParticipant fails with forbidden unless userID takes part in the event.
func (s *EventService) RequireParticipant(ctx context.Context, eventID int64, userID string) error {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return err
	}
	ok, err := s.events.IsParticipant(ctx, eventID, userID)
	if err != nil {
		return helpers.Internal(err)
	}
	if !ok {
		return helpers.Forbidden("you are not a participant of this event")
	}
	return nil
}
