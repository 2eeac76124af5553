package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/umoc-outing-club/gear-locker/internal/core/events"
	"github.com/umoc-outing-club/gear-locker/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish events on an in-process bus to inspect the custody event payloads`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a custody or gear event to the event bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var (
	eventGearTag  string
	eventBorrower string
	eventLeader   string
)

func publishTestEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()
	eventBus := events.NewEventBus(lg)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	date := time.Now().UTC().Format("2006-01-02")
	recordID := fmt.Sprintf("test-%d", time.Now().Unix())

	var event events.Event
	switch eventType {
	case events.EventTypeGearCheckedOut:
		event = events.NewGearCheckedOutEvent(recordID, eventGearTag, eventBorrower, eventLeader, date)
	case events.EventTypeGearCheckedIn:
		event = events.NewGearCheckedInEvent(recordID, eventGearTag, eventBorrower, eventLeader, date)
	case events.EventTypeGearChanged:
		event = events.NewGearChangedEvent(eventGearTag)
	default:
		return fmt.Errorf("unknown event type %q: want %s, %s or %s", eventType,
			events.EventTypeGearCheckedOut, events.EventTypeGearCheckedIn, events.EventTypeGearChanged)
	}

	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())

	if err := eventBus.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := eventBus.Wait(waitCtx); err != nil {
		return err
	}

	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventGearTag, "gear", "TNT001", "gear tag carried by the event")
	publishEventCmd.Flags().StringVar(&eventBorrower, "borrower", "12345678", "borrower institutional id")
	publishEventCmd.Flags().StringVar(&eventLeader, "leader", "87654321", "leader institutional id")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
