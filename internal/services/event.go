package services

import (
	"context"
	"fmt"
	"time"

	"eventsocials/internal/domain"
)

const defaultEventPageSize = 20

type eventService struct {
	eventRepo domain.EventRepository
}

// NewEventService creates an EventService with the given repository.
func NewEventService(eventRepo domain.EventRepository) domain.EventService {
	return &eventService{eventRepo: eventRepo}
}

func (s *eventService) Create(ctx context.Context, event *domain.Event) error {
	if event.CreatorID == "" {
		return fmt.Errorf("event creator is required")
	}
	event.CreatedAt = time.Now()
	return s.eventRepo.Create(ctx, event)
}

func (s *eventService) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultEventPageSize
	}
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
