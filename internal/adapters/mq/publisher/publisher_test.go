package publisher_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	publisher "github.com/talentbridge/talentbridge/internal/adapters/mq/publisher"
	"github.com/talentbridge/talentbridge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func testEvent(recruiterID string, oldScore, newScore float64) model.ReputationChangeEvent {
	return model.ReputationChangeEvent{
		RecruiterID: recruiterID,
		OldScore:    oldScore,
		NewScore:    newScore,
		Reason:      model.ReasonRecalculation,
		OccurredAt:  time.Now().UTC(),
	}
}

// collector gathers delivered envelopes for assertions.
type collector struct {
	mu        sync.Mutex
	delivered []publisher.Envelope
	failures  int
}

func (c *collector) handler(_ context.Context, env publisher.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		return errors.New("transient consumer failure")
	}
	c.delivered = append(c.delivered, env)
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delivered)
}

func (c *collector) first() publisher.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered[0]
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryPublisher_Delivery(t *testing.T) {
	Convey("Given a started publisher with a subscriber", t, func() {
		ctx := context.Background()
		c := &collector{}
		p := publisher.NewInMemoryPublisher(publisher.WithRetryDelay(time.Millisecond))
		p.Subscribe(c.handler)
		p.Start(ctx)
		defer p.Close()

		Convey("When publishing an event", func() {
			err := p.Publish(ctx, testEvent("rec-1", 50, 62))

			Convey("Then the subscriber should receive the envelope", func() {
				So(err, ShouldBeNil)
				So(waitFor(func() bool { return c.count() == 1 }), ShouldBeTrue)

				env := c.first()
				So(env.EventType, ShouldEqual, "reputation.updated")
				So(env.RecruiterID, ShouldEqual, "rec-1")
				So(env.Payload.OldScore, ShouldEqual, 50.0)
				So(env.Payload.NewScore, ShouldEqual, 62.0)
				So(env.Payload.Reason, ShouldEqual, "recalculation")
			})
		})
	})
}

func TestInMemoryPublisher_Retry(t *testing.T) {
	Convey("Given a subscriber that fails transiently", t, func() {
		ctx := context.Background()
		c := &collector{failures: 2}
		p := publisher.NewInMemoryPublisher(
			publisher.WithMaxRetries(3),
			publisher.WithRetryDelay(time.Millisecond),
		)
		p.Subscribe(c.handler)
		p.Start(ctx)
		defer p.Close()

		Convey("When publishing an event", func() {
			So(p.Publish(ctx, testEvent("rec-1", 50, 62)), ShouldBeNil)

			Convey("Then delivery should succeed after retries", func() {
				So(waitFor(func() bool { return c.count() == 1 }), ShouldBeTrue)
			})
		})
	})

	Convey("Given a subscriber that always fails", t, func() {
		ctx := context.Background()
		c := &collector{failures: 1 << 30}
		p := publisher.NewInMemoryPublisher(
			publisher.WithMaxRetries(1),
			publisher.WithRetryDelay(time.Millisecond),
		)
		p.Subscribe(c.handler)
		p.Start(ctx)
		defer p.Close()

		Convey("When publishing an event", func() {
			So(p.Publish(ctx, testEvent("rec-1", 50, 62)), ShouldBeNil)

			Convey("Then delivery should give up without blocking the loop", func() {
				time.Sleep(50 * time.Millisecond)
				So(c.count(), ShouldEqual, 0)
			})
		})
	})
}

func TestInMemoryPublisher_Backpressure(t *testing.T) {
	Convey("Given an unstarted publisher with a tiny buffer", t, func() {
		ctx := context.Background()
		p := publisher.NewInMemoryPublisher(publisher.WithBufferSize(1))

		Convey("When publishing past the buffer", func() {
			first := p.Publish(ctx, testEvent("rec-1", 50, 62))
			second := p.Publish(ctx, testEvent("rec-2", 50, 62))

			Convey("Then the overflow should fail fast instead of blocking", func() {
				So(first, ShouldBeNil)
				So(second, ShouldEqual, publisher.ErrBufferFull)
				So(p.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestInMemoryPublisher_Close(t *testing.T) {
	Convey("Given a started publisher", t, func() {
		ctx := context.Background()
		p := publisher.NewInMemoryPublisher()
		p.Start(ctx)

		Convey("When the publisher is closed", func() {
			So(p.Close(), ShouldBeNil)

			Convey("Then further publishes should be refused", func() {
				err := p.Publish(ctx, testEvent("rec-1", 50, 62))
				So(err, ShouldEqual, publisher.ErrClosed)
			})

			Convey("And closing again should be a no-op", func() {
				So(p.Close(), ShouldBeNil)
			})
		})
	})
}

func TestEnvelope_DedupeKey(t *testing.T) {
	Convey("Given two envelopes", t, func() {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		Convey("Then identical recruiter and time should collide", func() {
			a := publisher.NewEnvelope(model.ReputationChangeEvent{RecruiterID: "rec-1", OccurredAt: at})
			b := publisher.NewEnvelope(model.ReputationChangeEvent{RecruiterID: "rec-1", OccurredAt: at})
			So(a.DedupeKey(), ShouldEqual, b.DedupeKey())
		})

		Convey("And different recruiters or times should not", func() {
			a := publisher.NewEnvelope(model.ReputationChangeEvent{RecruiterID: "rec-1", OccurredAt: at})
			b := publisher.NewEnvelope(model.ReputationChangeEvent{RecruiterID: "rec-2", OccurredAt: at})
			c := publisher.NewEnvelope(model.ReputationChangeEvent{RecruiterID: "rec-1", OccurredAt: at.Add(time.Nanosecond)})
			So(a.DedupeKey(), ShouldNotEqual, b.DedupeKey())
			So(a.DedupeKey(), ShouldNotEqual, c.DedupeKey())
		})
	})
}
