// Package service provides the core business service that implements the
// dependencies required by the HTTP API: the reputation aggregator, the
// proposal lifecycle manager with its expiry sweeper, and the leaderboard
// query over the durable stores.
package service

import (
	"context"
	"sync"
	"time"

	eventpub "github.com/talentbridge/talentbridge/internal/adapters/mq/publisher"
	"github.com/talentbridge/talentbridge/internal/adapters/repository"
	"github.com/talentbridge/talentbridge/internal/domain/model"
	"github.com/talentbridge/talentbridge/internal/domain/scoring"
	"github.com/talentbridge/talentbridge/pkg/logger"
	"github.com/talentbridge/talentbridge/pkg/metrics"
)

// Service wires the stores, the aggregator, the lifecycle manager and the
// event publisher, and owns the background sweeper.
type Service struct {
	mu sync.RWMutex

	// Core components
	db          *repository.DB
	reputations repository.ReputationStore
	proposals   repository.ProposalStore
	publisher   *eventpub.InMemoryPublisher
	aggregator  *Aggregator
	lifecycle   *Lifecycle

	// Configuration
	dbPath               string
	sweepInterval        time.Duration
	responseWindow       time.Duration
	threshold            float64
	baseline             float64
	hireWeight           float64
	completionWeight     float64
	collaborationWeight  float64
	responsivenessWeight float64
	publisherBufferSize  int
	publishMaxRetries    int
	publishRetryDelay    time.Duration

	// State
	started     bool
	stopSweeper context.CancelFunc
	subscribers []eventpub.Handler

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite database path.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithSweepInterval sets the expiry sweep cadence.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithResponseWindow sets the default proposal response window.
func WithResponseWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.responseWindow = window
		}
	}
}

// WithThreshold sets the significance threshold for change events.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 {
			s.threshold = threshold
		}
	}
}

// WithScorePolicy sets the baseline and the four signal weights.
func WithScorePolicy(baseline, hire, completion, collaboration, responsiveness float64) Option {
	return func(s *Service) {
		s.baseline = baseline
		s.hireWeight = hire
		s.completionWeight = completion
		s.collaborationWeight = collaboration
		s.responsivenessWeight = responsiveness
	}
}

// WithPublisherBufferSize bounds the event buffer.
func WithPublisherBufferSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.publisherBufferSize = size
		}
	}
}

// WithPublishRetryPolicy shapes at-least-once delivery.
func WithPublishRetryPolicy(maxRetries int, delay time.Duration) Option {
	return func(s *Service) {
		if maxRetries >= 0 {
			s.publishMaxRetries = maxRetries
		}
		if delay > 0 {
			s.publishRetryDelay = delay
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:               "talentbridge.db",
		sweepInterval:        time.Minute,
		responseWindow:       72 * time.Hour,
		threshold:            5,
		baseline:             50,
		hireWeight:           0.40,
		completionWeight:     0.30,
		collaborationWeight:  0.15,
		responsivenessWeight: 0.15,
		publisherBufferSize:  1024,
		publishMaxRetries:    3,
		publishRetryDelay:    100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SubscribeEvents registers a downstream consumer of reputation.updated
// events. Must be called before Start.
func (s *Service) SubscribeEvents(h eventpub.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, h)
}

// Start opens the store, wires the components and launches the sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting reputation service...",
		logger.String("dbPath", s.dbPath),
		logger.Duration("sweepInterval", s.sweepInterval),
	)

	db, err := repository.Open(ctx, s.dbPath)
	if err != nil {
		return err
	}
	s.db = db
	s.reputations = repository.NewReputationStore(db, repository.WithBaseline(s.baseline))
	s.proposals = repository.NewProposalStore(db)

	s.publisher = eventpub.NewInMemoryPublisher(
		eventpub.WithBufferSize(s.publisherBufferSize),
		eventpub.WithMaxRetries(s.publishMaxRetries),
		eventpub.WithRetryDelay(s.publishRetryDelay),
		eventpub.WithLogger(s.logger.Named("publisher")),
	)
	for _, h := range s.subscribers {
		s.publisher.Subscribe(h)
	}
	s.publisher.Start(ctx)

	calc := scoring.NewCalculator(
		scoring.WithBaseline(s.baseline),
		scoring.WithWeights(s.hireWeight, s.completionWeight, s.collaborationWeight, s.responsivenessWeight),
	)
	s.aggregator = NewAggregator(s.reputations, calc, s.publisher,
		WithSignificanceThreshold(s.threshold),
		WithAggregatorLogger(s.logger.Named("aggregator")),
	)
	s.lifecycle = NewLifecycle(s.proposals, s.aggregator,
		WithLifecycleResponseWindow(s.responseWindow),
		WithLifecycleLogger(s.logger.Named("lifecycle")),
	)

	sweepCtx, cancel := context.WithCancel(context.Background())
	s.stopSweeper = cancel
	go s.lifecycle.RunSweeper(sweepCtx, s.sweepInterval)

	s.started = true
	s.logger.Info(ctx, "reputation service started",
		logger.Float64("threshold", s.threshold),
		logger.Duration("responseWindow", s.responseWindow),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping reputation service...")

	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error(ctx, "closing store failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "reputation service stopped")
}

// Reputation returns a recruiter's aggregate, creating it on first access.
func (s *Service) Reputation(ctx context.Context, recruiterID string) (*model.RecruiterReputation, error) {
	return s.aggregator.Get(ctx, recruiterID)
}

// Recalculate forces a recomputation of a recruiter's derived fields.
func (s *Service) Recalculate(ctx context.Context, recruiterID string) (*model.RecruiterReputation, error) {
	return s.aggregator.Recalculate(ctx, recruiterID)
}

// RecordPlacementOutcome forwards a placement result to the aggregator.
func (s *Service) RecordPlacementOutcome(ctx context.Context, recruiterID string, completed, wasCollaboration bool) error {
	return s.aggregator.RecordPlacementOutcome(ctx, recruiterID, completed, wasCollaboration)
}

// IncrementSubmissions forwards a submission to the aggregator.
func (s *Service) IncrementSubmissions(ctx context.Context, recruiterID string) error {
	return s.aggregator.IncrementSubmissions(ctx, recruiterID)
}

// IncrementHires forwards a hire to the aggregator.
func (s *Service) IncrementHires(ctx context.Context, recruiterID string) error {
	return s.aggregator.IncrementHires(ctx, recruiterID)
}

// Leaderboard returns the top-n aggregates by score, ties broken by
// recruiter id. Consistency is "recent": a view one recalculation behind is
// acceptable.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]model.RecruiterReputation, error) {
	return s.reputations.TopN(ctx, n)
}

// CreateProposal creates a new proposal.
func (s *Service) CreateProposal(ctx context.Context, in CreateProposalInput) (*model.Proposal, error) {
	return s.lifecycle.Create(ctx, in)
}

// GetProposal returns a proposal by id.
func (s *Service) GetProposal(ctx context.Context, id string) (*model.Proposal, error) {
	return s.lifecycle.Get(ctx, id)
}

// RespondProposal applies a human decision to a proposal.
func (s *Service) RespondProposal(ctx context.Context, id string, decision Decision) (*model.Proposal, error) {
	return s.lifecycle.Respond(ctx, id, decision)
}

// Sweep runs a single expiry pass, for the cron endpoint and the CLI.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	return s.lifecycle.SweepExpired(ctx, time.Now().UTC())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"sweepIntervalSec": s.sweepInterval.Seconds(),
	}

	if !s.started {
		return stats
	}

	if n, err := s.reputations.Count(ctx); err == nil {
		stats["trackedRecruiters"] = n
		metrics.UpdateTrackedRecruiters(n)
	}
	if byState, err := s.proposals.CountByState(ctx); err == nil {
		for state, n := range byState {
			stats["proposals_"+string(state)] = n
		}
	}
	stats["publisherQueue"] = s.publisher.Len()

	return stats
}
