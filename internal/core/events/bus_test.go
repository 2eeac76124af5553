package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umoc-outing-club/gear-locker/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var (
		bus *events.EventBus
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	})

	It("should deliver events to every subscriber of the type", func() {
		var calls int32
		bus.Subscribe(events.EventTypeGearCheckedOut, func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
		bus.Subscribe(events.EventTypeGearCheckedOut, func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
		bus.Subscribe(events.EventTypeGearCheckedIn, func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 100)
			return nil
		})

		Expect(bus.Publish(ctx, events.NewGearCheckedOutEvent("r1", "ABC123", "12345678", "87654321", "2024-03-01"))).To(Succeed())
		Expect(bus.Wait(ctx)).To(Succeed())

		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(2)))
	})

	It("should register one handler for several types", func() {
		var seen []string
		bus.SubscribeAll(func(ctx context.Context, e events.Event) error {
			seen = append(seen, e.EventType())
			return nil
		}, events.EventTypeGearCheckedOut, events.EventTypeGearCheckedIn)

		Expect(bus.PublishSync(ctx, events.NewGearCheckedInEvent("r1", "ABC123", "12345678", "87654321", "2024-03-01"))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewGearCheckedOutEvent("r2", "ABC123", "12345678", "87654321", "2024-03-02"))).To(Succeed())

		Expect(seen).To(Equal([]string{events.EventTypeGearCheckedIn, events.EventTypeGearCheckedOut}))
	})

	It("should return the first synchronous handler error", func() {
		bus.Subscribe(events.EventTypeGearChanged, func(ctx context.Context, e events.Event) error {
			return errors.New("boom")
		})

		err := bus.PublishSync(ctx, events.NewGearChangedEvent("ABC123"))

		Expect(err).To(MatchError(ContainSubstring("boom")))
	})

	It("should contain panicking handlers", func() {
		bus.Subscribe(events.EventTypeGearChanged, func(ctx context.Context, e events.Event) error {
			panic("bad handler")
		})

		Expect(bus.Publish(ctx, events.NewGearChangedEvent("ABC123"))).To(Succeed())
		Expect(bus.Wait(ctx)).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewGearChangedEvent("ABC123"))).To(MatchError(ContainSubstring("panicked")))
	})

	It("should ignore events nobody listens to", func() {
		Expect(bus.Publish(ctx, events.NewGearChangedEvent("ABC123"))).To(Succeed())
	})

	It("should stop waiting when the context ends", func() {
		release := make(chan struct{})
		bus.Subscribe(events.EventTypeGearChanged, func(ctx context.Context, e events.Event) error {
			<-release
			return nil
		})
		Expect(bus.Publish(ctx, events.NewGearChangedEvent("ABC123"))).To(Succeed())

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		Expect(bus.Wait(waitCtx)).To(MatchError(context.DeadlineExceeded))

		close(release)
		Expect(bus.Wait(ctx)).To(Succeed())
	})

	It("should carry the custody payload", func() {
		e := events.NewGearCheckedOutEvent("r1", "ABC123", "12345678", "87654321", "2024-03-01")

		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.Payload()).To(HaveKeyWithValue("gear_tag", "ABC123"))
		Expect(e.BorrowerID).To(Equal("12345678"))
	})
})
