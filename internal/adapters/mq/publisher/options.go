package publisher

import (
	"time"

	"github.com/talentbridge/talentbridge/pkg/logger"
)

// Option applies a configuration option to the InMemoryPublisher.
type Option func(*InMemoryPublisher)

// WithBufferSize bounds the in-memory event buffer.
func WithBufferSize(size int) Option {
	return func(p *InMemoryPublisher) {
		if size > 0 {
			p.bufferSize = size
		}
	}
}

// WithMaxRetries sets the per-handler delivery retry bound.
func WithMaxRetries(n int) Option {
	return func(p *InMemoryPublisher) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// WithRetryDelay sets the pause between delivery attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(p *InMemoryPublisher) {
		if d > 0 {
			p.retryDelay = d
		}
	}
}

// WithLogger sets a custom logger for the delivery loop.
func WithLogger(l logger.Logger) Option {
	return func(p *InMemoryPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}
