package domain

import "errors"

// Sentinel errors shared across services. Controllers translate these to
// HTTP status codes; services never let a repository or codec error escape
// without mapping or wrapping it.
var (
	// ErrNotFound is returned when an event, user, or join request does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a join request already exists for the
	// (event, user) pair, regardless of the existing request's status.
	ErrConflict = errors.New("join request already exists")

	// ErrForbidden is returned when an action token's sender does not match
	// the current creator of the event it targets.
	ErrForbidden = errors.New("only event creator can update join request status")

	// ErrInvalidToken is returned when an action token fails signature
	// verification or is structurally malformed. Callers treat it as a
	// benign no-op, never as a fault.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNotificationFailed is returned when a join request was persisted but
	// the notification could not be handed to the queue. The record stands;
	// the publish can be retried out of band.
	ErrNotificationFailed = errors.New("notification publish failed")

	// ErrUnprocessableMessage marks a queued notification that can never be
	// delivered (unknown type, unusable payload). Consumers dead-letter it
	// instead of requeueing.
	ErrUnprocessableMessage = errors.New("unprocessable notification message")

	// ErrInvalidCredentials is returned on login with a wrong email or password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateEmail is returned on signup with an email already in use.
	ErrDuplicateEmail = errors.New("email already in use")
)
