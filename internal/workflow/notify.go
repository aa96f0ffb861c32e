package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/power-data-portal/internal/core/events"
	"github.com/frahmantamala/power-data-portal/internal/mail"
)

// AdminDirectory lists who reviews submissions.
type AdminDirectory interface {
	AdminEmails(ctx context.Context) ([]string, error)
}

// Notifier mails admins about new submissions and tells submitters how
// their request was decided.
type Notifier struct {
	mailer mail.Mailer
	admins AdminDirectory
	logger *slog.Logger
}

func NewNotifier(mailer mail.Mailer, admins AdminDirectory, logger *slog.Logger) *Notifier {
	return &Notifier{mailer: mailer, admins: admins, logger: logger}
}

func (n *Notifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeRequestSubmitted, n.onSubmitted)
	bus.Subscribe(events.EventTypeRequestApproved, n.onDecided)
	bus.Subscribe(events.EventTypeRequestRejected, n.onDecided)
}

func (n *Notifier) onSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.RequestEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}
	to, err := n.admins.AdminEmails(ctx)
	if err != nil {
		return fmt.Errorf("load admin emails: %w", err)
	}
	if len(to) == 0 {
		n.logger.Warn("no active admins to notify", "request_id", e.RequestID)
		return nil
	}
	return n.mailer.Send(ctx, mail.Message{
		To:      to,
		Subject: fmt.Sprintf("New %s submission awaiting review", e.DataType),
		Body: fmt.Sprintf("%s submitted a new %s record (request #%d).\nReview it under pending requests.\n",
			e.SubmittedBy, e.DataType, e.RequestID),
	})
}

func (n *Notifier) onDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.RequestEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}
	verdict := "approved"
	if e.EventType() == events.EventTypeRequestRejected {
		verdict = "rejected"
	}
	return n.mailer.Send(ctx, mail.Message{
		To:      []string{e.SubmittedBy},
		Subject: fmt.Sprintf("Your %s submission was %s", e.DataType, verdict),
		Body:    fmt.Sprintf("Request #%d was %s by %s.\n", e.RequestID, verdict, e.Reviewer),
	})
}

// LogEvents records every workflow event in the application log.
func LogEvents(bus *events.EventBus, logger *slog.Logger) {
	handler := func(_ context.Context, event events.Event) error {
		logger.Info("workflow event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	}
	for _, t := range []string{
		events.EventTypeRequestSubmitted,
		events.EventTypeRequestApproved,
		events.EventTypeRequestRejected,
		events.EventTypeRecordCommitted,
	} {
		bus.Subscribe(t, handler)
	}
}
