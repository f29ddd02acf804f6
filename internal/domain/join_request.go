package domain

import (
	"context"
	"time"
)

// JoinRequestStatus is the state of a join request. The only legal
// transitions are pending -> accepted and pending -> rejected; accepted and
// rejected are terminal.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// IsTerminal reports whether the status can no longer change.
func (s JoinRequestStatus) IsTerminal() bool {
	return s == JoinRequestAccepted || s == JoinRequestRejected
}

// JoinRequest represents a user's request to join an event. At most one
// request exists per (event, user) pair.
// swagger:model JoinRequest
type JoinRequest struct {
	ID        string            `json:"id"`
	EventID   string            `json:"event_id"`
	UserID    string            `json:"user_id"`
	Status    JoinRequestStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewJoinRequest returns a pending JoinRequest. ID is set by the repository on create.
func NewJoinRequest(eventID, userID string, createdAt time.Time) *JoinRequest {
	return &JoinRequest{
		EventID:   eventID,
		UserID:    userID,
		Status:    JoinRequestPending,
		CreatedAt: createdAt,
	}
}

// JoinRequestRepository defines storage operations for join requests.
type JoinRequestRepository interface {
	Create(ctx context.Context, jr *JoinRequest) error
	GetByID(ctx context.Context, id string) (*JoinRequest, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*JoinRequest, error)
	// UpdateStatusIfPending transitions the request to status only if it is
	// still pending, and reports whether a row was updated. Concurrent
	// resolutions race on this conditional write; exactly one wins.
	UpdateStatusIfPending(ctx context.Context, id string, status JoinRequestStatus) (bool, error)
}

// JoinAction is the payload of a signed action token: a single accept or
// deny decision for one join request. Sender is the event creator's email
// and anchors authorization at resolve time; Receiver is informational.
type JoinAction struct {
	Sender   string
	Receiver string
	Status   JoinRequestStatus
	JoinID   string
}

// JoinActionCodec encodes and decodes signed action tokens. Both operations
// are pure functions of the payload and a process-wide secret; Decode must
// verify the signature before returning any field and reports failures as
// ErrInvalidToken.
type JoinActionCodec interface {
	Encode(action JoinAction) (string, error)
	Decode(token string) (JoinAction, error)
}

// JoinRequestService owns the join-request state machine.
type JoinRequestService interface {
	// Send creates a pending join request for (eventID, userID), mints the
	// accept and deny tokens, and publishes the pending notification to the
	// event creator. When publishing fails after the request is persisted it
	// returns the record together with ErrNotificationFailed.
	Send(ctx context.Context, eventID, userID string) (*JoinRequest, error)
	// Resolve applies the decision carried by an action token. Presenting a
	// token against an already-resolved request is a read-only no-op that
	// returns the terminal record.
	Resolve(ctx context.Context, token string) (*JoinRequest, error)
}
