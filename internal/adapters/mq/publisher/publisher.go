// Package publisher delivers reputation change events to downstream consumers.
//
// Delivery is at-least-once: events are buffered in memory and each
// registered handler is invoked with bounded retries. A handler may therefore
// see the same event more than once; consumers that need effectively-once
// handling de-duplicate on the envelope's DedupeKey. Publishing is
// best-effort from the aggregator's point of view: the persisted aggregate is
// the source of truth and a failed publish is never rolled back.
package publisher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/talentbridge/talentbridge/internal/domain/model"
	"github.com/talentbridge/talentbridge/pkg/logger"
	"github.com/talentbridge/talentbridge/pkg/metrics"
)

// EventTypeReputationUpdated is the only event type the core emits.
const EventTypeReputationUpdated = "reputation.updated"

// Default publisher configuration constants.
const (
	defaultBufferSize = 1024
	defaultMaxRetries = 3
	defaultRetryDelay = 100 * time.Millisecond
)

// Payload is the score movement carried by a reputation.updated event.
type Payload struct {
	OldScore float64 `json:"old_score"`
	NewScore float64 `json:"new_score"`
	Reason   string  `json:"reason"`
}

// Envelope is the wire shape published to consumers.
type Envelope struct {
	EventType   string    `json:"event_type"`
	RecruiterID string    `json:"recruiter_id"`
	Payload     Payload   `json:"payload"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEnvelope wraps a domain change event in the wire envelope.
func NewEnvelope(ev model.ReputationChangeEvent) Envelope {
	return Envelope{
		EventType:   EventTypeReputationUpdated,
		RecruiterID: ev.RecruiterID,
		Payload: Payload{
			OldScore: ev.OldScore,
			NewScore: ev.NewScore,
			Reason:   ev.Reason,
		},
		OccurredAt: ev.OccurredAt,
	}
}

// DedupeKey identifies an event for consumer-side de-duplication.
func (e Envelope) DedupeKey() string {
	return e.RecruiterID + "|" + e.OccurredAt.UTC().Format(time.RFC3339Nano)
}

// Handler consumes a delivered envelope. Returning an error triggers a retry.
type Handler func(ctx context.Context, env Envelope) error

// Publisher accepts domain change events for asynchronous delivery.
type Publisher interface {
	// Publish buffers an event for delivery. Fails with ErrBufferFull under
	// saturation and ErrClosed after Close.
	Publish(ctx context.Context, ev model.ReputationChangeEvent) error

	// Len returns the number of events waiting for delivery.
	Len() int
}

// InMemoryPublisher implements Publisher with a bounded channel and a single
// delivery loop invoking registered handlers.
type InMemoryPublisher struct {
	events     chan Envelope
	bufferSize int
	maxRetries int
	retryDelay time.Duration

	mu       sync.RWMutex
	handlers []Handler
	closed   bool

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryPublisher creates a publisher with configuration options.
func NewInMemoryPublisher(opts ...Option) *InMemoryPublisher {
	p := &InMemoryPublisher{
		bufferSize: defaultBufferSize,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		done:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.events = make(chan Envelope, p.bufferSize)
	return p
}

// Subscribe registers a delivery handler. Must be called before Start.
func (p *InMemoryPublisher) Subscribe(h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, h)
}

// Publish buffers an event for asynchronous delivery.
func (p *InMemoryPublisher) Publish(ctx context.Context, ev model.ReputationChangeEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		metrics.RecordPublishError()
		return ErrClosed
	}

	select {
	case p.events <- NewEnvelope(ev):
		metrics.UpdatePublisherQueueSize(len(p.events))
		return nil
	case <-ctx.Done():
		metrics.RecordPublishError()
		return fmt.Errorf("publish: %w", ctx.Err())
	default:
		metrics.RecordPublishError()
		return ErrBufferFull
	}
}

// Len returns the number of buffered events.
func (p *InMemoryPublisher) Len() int {
	return len(p.events)
}

// Start launches the delivery loop. It runs until the publisher is closed and
// the buffer drained, or ctx is canceled.
func (p *InMemoryPublisher) Start(ctx context.Context) {
	if p.logger == nil {
		p.logger = logger.Get().Named("publisher")
	}

	go func() {
		defer close(p.done)
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-p.events:
				if !ok {
					return
				}
				p.deliver(ctx, env)
				metrics.UpdatePublisherQueueSize(len(p.events))
			}
		}
	}()
}

// deliver invokes every handler with bounded retries. At-least-once: a
// handler that fails after all retries simply misses this delivery attempt;
// the aggregate remains the source of truth.
func (p *InMemoryPublisher) deliver(ctx context.Context, env Envelope) {
	p.mu.RLock()
	handlers := p.handlers
	p.mu.RUnlock()

	for _, h := range handlers {
		var err error
		for attempt := 0; attempt <= p.maxRetries; attempt++ {
			if attempt > 0 {
				metrics.RecordPublishRetry()
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.retryDelay):
				}
			}
			if err = h(ctx, env); err == nil {
				break
			}
		}
		if err != nil {
			metrics.RecordPublishError()
			p.logger.Error(ctx, "event delivery failed after retries",
				logger.String("recruiterID", env.RecruiterID),
				logger.Int("retries", p.maxRetries),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordChangeEventPublished()
	}
}

// Close stops accepting events and waits for the delivery loop to drain.
func (p *InMemoryPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	<-p.done
	return nil
}
