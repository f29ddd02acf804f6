package domain

import (
	"context"
	"time"
)

// EventCategory classifies an event.
type EventCategory string

const (
	CategoryCyberSecurity       EventCategory = "CyberSecurity"
	CategorySoftwareEngineering EventCategory = "Software Engineering"
	CategoryDevOps              EventCategory = "DevOps"
)

// Event represents a social event owned by its creator.
// swagger:model Event
type Event struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Date        time.Time     `json:"date"`
	Category    EventCategory `json:"category"`
	CreatorID   string        `json:"creator_id"`
	// Creator is populated by reads that join the creator record; it is the
	// authorization anchor for join-request resolution.
	Creator   *User     `json:"creator,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventFilter narrows event listings.
type EventFilter struct {
	Category  EventCategory
	StartDate time.Time
	EndDate   time.Time
	Offset    int
	Limit     int
}

// EventRepository defines the interface for event storage.
// GetByID loads the event together with its creator.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter) ([]*Event, error)
}

// EventService defines event creation and listing.
type EventService interface {
	Create(ctx context.Context, event *Event) error
	List(ctx context.Context, filter EventFilter) ([]*Event, error)
}
