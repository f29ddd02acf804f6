package domain

import "context"

// EmailQueue is the durable queue notifications are published to.
const EmailQueue = "email_queue"

// NotificationMessage is the payload handed to the queue. It is a
// point-in-time snapshot: consumers render and send it without querying the
// workflow store. Delivery is at-least-once, so recipients may see duplicates.
type NotificationMessage struct {
	// Type discriminates the message: pending carries the action tokens to
	// the event creator; accepted/rejected notify the requester.
	Type          JoinRequestStatus `json:"type"`
	Title         string            `json:"title"`
	Recipient     string            `json:"recipient"`
	RequesterName string            `json:"requester_name,omitempty"`
	JoinRequestID string            `json:"join_request_id,omitempty"`
	Accept        string            `json:"accept,omitempty"`
	Deny          string            `json:"deny,omitempty"`
}

// NotificationPublisher hands a message to the durable queue. It confirms
// queueing, not delivery.
type NotificationPublisher interface {
	Publish(ctx context.Context, msg *NotificationMessage) error
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// NotificationHandler processes one dequeued message. A nil return
// acknowledges the message; ErrUnprocessableMessage dead-letters it; any
// other error requeues it for redelivery.
type NotificationHandler interface {
	Handle(ctx context.Context, msg *NotificationMessage) error
}
