package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/power-data-portal/internal/core/events"
	"github.com/frahmantamala/power-data-portal/internal/equipment"
	"github.com/frahmantamala/power-data-portal/internal/workflow"
	"github.com/frahmantamala/power-data-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Workflow event commands",
	Long:  `Publish workflow events through the in-process bus to check logging and mail notifications`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a workflow event",
	Long:      `Publish a workflow event with the configured mailer wired to the notifier`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeRequestSubmitted, events.EventTypeRequestApproved, events.EventTypeRequestRejected, events.EventTypeRecordCommitted},
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishWorkflowEvent(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var (
	eventRequestID   int64
	eventDataType    string
	eventSubmittedBy string
	eventReviewer    string
	eventAdmins      []string
)

// adminList stands in for the user directory when no database is involved.
type adminList []string

func (a adminList) AdminEmails(context.Context) ([]string, error) {
	return a, nil
}

func buildEvent(eventType string) (events.Event, error) {
	if _, err := equipment.Lookup(eventDataType); err != nil {
		return nil, err
	}
	switch eventType {
	case events.EventTypeRequestSubmitted:
		return events.NewRequestSubmittedEvent(eventRequestID, eventDataType, eventSubmittedBy), nil
	case events.EventTypeRequestApproved:
		return events.NewRequestApprovedEvent(eventRequestID, eventDataType, eventSubmittedBy, eventReviewer, 0), nil
	case events.EventTypeRequestRejected:
		return events.NewRequestRejectedEvent(eventRequestID, eventDataType, eventSubmittedBy, eventReviewer), nil
	case events.EventTypeRecordCommitted:
		return events.NewRecordCommittedEvent(eventDataType, 0, eventSubmittedBy), nil
	}
	return nil, fmt.Errorf("unknown event type %q", eventType)
}

func publishWorkflowEvent(eventType string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := logger.LoggerWrapper()

	event, err := buildEvent(eventType)
	if err != nil {
		return err
	}

	mailer, closeMailer, err := initMailer(cfg)
	if err != nil {
		return err
	}
	defer closeMailer()

	bus := events.NewEventBus(logger)
	workflow.LogEvents(bus, logger)
	workflow.NewNotifier(mailer, adminList(eventAdmins), logger).Register(bus)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("publishing workflow event", "event_type", eventType, "event_id", event.EventID())
	if err := bus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	logger.Info("workflow event published")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventRequestID, "request-id", 1, "pending request id")
	publishEventCmd.Flags().StringVar(&eventDataType, "data-type", string(equipment.KindBus), "equipment data type")
	publishEventCmd.Flags().StringVar(&eventSubmittedBy, "submitted-by", "user@example.com", "submitter email")
	publishEventCmd.Flags().StringVar(&eventReviewer, "reviewer", "admin@example.com", "reviewing admin email")
	publishEventCmd.Flags().StringSliceVar(&eventAdmins, "admins", []string{"admin@example.com"}, "admin emails notified of submissions")

	eventCmd.AddCommand(publishEventCmd)
}
