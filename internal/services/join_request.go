package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventsocials/internal/domain"
)

type joinRequestService struct {
	eventRepo domain.EventRepository
	userRepo  domain.UserRepository
	joinRepo  domain.JoinRequestRepository
	codec     domain.JoinActionCodec
	publisher domain.NotificationPublisher
	logger    *slog.Logger
}

// NewJoinRequestService creates the join-request workflow engine with the
// given collaborators.
func NewJoinRequestService(
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	joinRepo domain.JoinRequestRepository,
	codec domain.JoinActionCodec,
	publisher domain.NotificationPublisher,
	logger *slog.Logger,
) domain.JoinRequestService {
	return &joinRequestService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		joinRepo:  joinRepo,
		codec:     codec,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *joinRequestService) Send(ctx context.Context, eventID, userID string) (*domain.JoinRequest, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	// Any existing request for the pair blocks a new one, a rejected record
	// included: re-requesting after rejection is not supported.
	if _, err := s.joinRepo.GetByEventAndUser(ctx, eventID, userID); err == nil {
		return nil, domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get join request: %w", err)
	}

	jr := domain.NewJoinRequest(eventID, userID, time.Now())
	if err := s.joinRepo.Create(ctx, jr); err != nil {
		return nil, fmt.Errorf("create join request: %w", err)
	}

	// Tokens are minted once, only after the record exists.
	accept, err := s.codec.Encode(domain.JoinAction{
		Sender:   event.Creator.Email,
		Receiver: user.Email,
		Status:   domain.JoinRequestAccepted,
		JoinID:   jr.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode accept token: %w", err)
	}
	deny, err := s.codec.Encode(domain.JoinAction{
		Sender:   event.Creator.Email,
		Receiver: user.Email,
		Status:   domain.JoinRequestRejected,
		JoinID:   jr.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode deny token: %w", err)
	}

	msg := &domain.NotificationMessage{
		Type:          domain.JoinRequestPending,
		Title:         event.Title,
		Recipient:     event.Creator.Email,
		RequesterName: user.FullName,
		JoinRequestID: jr.ID,
		Accept:        accept,
		Deny:          deny,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		// The request is already durable; only the notification hand-off
		// failed. Surface that without pretending the create failed.
		s.logger.ErrorContext(ctx, "join request persisted but notification not queued",
			"join_request_id", jr.ID, "event_id", eventID, "err", err)
		return jr, fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}

	return jr, nil
}

func (s *joinRequestService) Resolve(ctx context.Context, token string) (*domain.JoinRequest, error) {
	action, err := s.codec.Decode(token)
	if err != nil {
		// A bad token never mutates state.
		s.logger.DebugContext(ctx, "discarded invalid action token", "err", err)
		return nil, err
	}

	jr, err := s.joinRepo.GetByID(ctx, action.JoinID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get join request: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, jr.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	user, err := s.userRepo.GetByID(ctx, jr.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	// Authorization binds to the creator of record at resolve time. If event
	// ownership changed since the token was minted, the token stops working.
	if event.Creator == nil || event.Creator.Email != action.Sender {
		return nil, domain.ErrForbidden
	}

	// A resolved request is terminal; re-presenting either token is a
	// read-only no-op and publishes nothing.
	if jr.Status.IsTerminal() {
		return jr, nil
	}

	updated, err := s.joinRepo.UpdateStatusIfPending(ctx, jr.ID, action.Status)
	if err != nil {
		return nil, fmt.Errorf("update join request status: %w", err)
	}
	if !updated {
		// Lost the race against a concurrent resolution; report the state
		// that won without publishing a second notification.
		current, err := s.joinRepo.GetByID(ctx, jr.ID)
		if err != nil {
			return nil, fmt.Errorf("reload join request: %w", err)
		}
		return current, nil
	}
	jr.Status = action.Status

	msg := &domain.NotificationMessage{
		Type:      action.Status,
		Title:     event.Title,
		Recipient: user.Email,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "join request resolved but notification not queued",
			"join_request_id", jr.ID, "status", jr.Status, "err", err)
		return jr, fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}

	return jr, nil
}
