package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventsocials/internal/domain"
)

// JoinRequestEmailData is the render input for the join-request templates.
type JoinRequestEmailData struct {
	Title         string
	RequesterName string
	AcceptURL     string
	DenyURL       string
}

type notificationMailer struct {
	mailer     domain.Mailer
	renderer   domain.EmailTemplateRenderer
	apiBaseURL string
	logger     *slog.Logger
}

// NewNotificationMailer returns the consumer-side handler that turns a
// dequeued NotificationMessage into an email. apiBaseURL is the public URL
// the accept/deny links are built on.
func NewNotificationMailer(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, apiBaseURL string, logger *slog.Logger) domain.NotificationHandler {
	return &notificationMailer{
		mailer:     mailer,
		renderer:   renderer,
		apiBaseURL: apiBaseURL,
		logger:     logger,
	}
}

// Handle renders and sends the email for msg. The message is a snapshot:
// nothing here reads the workflow store. Errors other than
// ErrUnprocessableMessage are transient and lead to redelivery, so sends must
// be tolerable more than once by the recipient.
func (s *notificationMailer) Handle(ctx context.Context, msg *domain.NotificationMessage) error {
	var templateName string
	switch msg.Type {
	case domain.JoinRequestPending:
		templateName = "join_request_pending"
	case domain.JoinRequestAccepted:
		templateName = "join_request_accepted"
	case domain.JoinRequestRejected:
		templateName = "join_request_rejected"
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrUnprocessableMessage, msg.Type)
	}

	data := JoinRequestEmailData{
		Title:         msg.Title,
		RequesterName: msg.RequesterName,
	}
	if msg.Type == domain.JoinRequestPending {
		data.AcceptURL = fmt.Sprintf("%s/events/join-request/%s", s.apiBaseURL, msg.Accept)
		data.DenyURL = fmt.Sprintf("%s/events/join-request/%s", s.apiBaseURL, msg.Deny)
	}

	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("%w: render %s: %v", domain.ErrUnprocessableMessage, templateName, err)
	}
	if err := s.mailer.Send(msg.Recipient, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send %s email to %s: %w", msg.Type, msg.Recipient, err)
	}
	s.logger.InfoContext(ctx, "notification email sent", "type", msg.Type, "recipient", msg.Recipient)
	return nil
}
