package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentbridge/talentbridge/internal/adapters/repository"
	"github.com/talentbridge/talentbridge/internal/domain/model"
	"github.com/talentbridge/talentbridge/pkg/logger"
	"github.com/talentbridge/talentbridge/pkg/metrics"
)

// Decision is a human response to a proposal.
type Decision string

// Human decisions.
const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// ParseDecision validates a request decision string.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionDecline:
		return DecisionDecline, nil
	}
	return "", fmt.Errorf("unknown decision %q", s)
}

// CreateProposalInput carries the fields for a new proposal. ResponseDueAt is
// optional; when nil the lifecycle applies its configured response window.
type CreateProposalInput struct {
	RecruiterID   string
	CandidateID   string
	JobID         string
	ResponseDueAt *time.Time
}

// Lifecycle is the proposal state machine plus the expiry sweep. Every
// terminal transition forwards an outcome to the reputation aggregator.
type Lifecycle struct {
	proposals repository.ProposalStore
	agg       *Aggregator
	window    time.Duration
	logger    logger.Logger

	// Injectable clock for testing.
	now func() time.Time
}

// LifecycleOption applies a configuration option to the Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithLifecycleResponseWindow sets the default response window for new proposals.
func WithLifecycleResponseWindow(w time.Duration) LifecycleOption {
	return func(l *Lifecycle) {
		if w > 0 {
			l.window = w
		}
	}
}

// WithLifecycleClock injects a clock, for tests.
func WithLifecycleClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLifecycleLogger sets a custom logger.
func WithLifecycleLogger(lg logger.Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLifecycle creates a lifecycle manager over the given collaborators.
func NewLifecycle(proposals repository.ProposalStore, agg *Aggregator, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		proposals: proposals,
		agg:       agg,
		window:    72 * time.Hour,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Create persists a new proposal in the proposed state. The response deadline
// is fixed here and never mutated afterwards.
func (l *Lifecycle) Create(ctx context.Context, in CreateProposalInput) (*model.Proposal, error) {
	if in.RecruiterID == "" || in.CandidateID == "" || in.JobID == "" {
		return nil, errors.New("recruiter_id, candidate_id and job_id are required")
	}

	now := l.now().UTC()
	dueAt := now.Add(l.window)
	if in.ResponseDueAt != nil {
		if !in.ResponseDueAt.After(now) {
			return nil, errors.New("response_due_at must be in the future")
		}
		dueAt = in.ResponseDueAt.UTC()
	}

	p := &model.Proposal{
		ID:            uuid.NewString(),
		RecruiterID:   in.RecruiterID,
		CandidateID:   in.CandidateID,
		JobID:         in.JobID,
		State:         model.StateProposed,
		ProposedAt:    now,
		ResponseDueAt: dueAt,
	}
	if err := l.proposals.Create(ctx, p); err != nil {
		return nil, err
	}
	metrics.RecordProposalCreated()
	return p, nil
}

// Get returns a proposal by id.
func (l *Lifecycle) Get(ctx context.Context, id string) (*model.Proposal, error) {
	return l.proposals.Get(ctx, id)
}

// Respond applies a human decision. Expiry is checked on read, not only by
// the sweep, so a late click never wins a race with the sweep. The terminal
// write is conditional on the proposal still being proposed; losing that race
// surfaces as ErrInvalidState because the proposal is terminal either way.
func (l *Lifecycle) Respond(ctx context.Context, id string, decision Decision) (*model.Proposal, error) {
	p, err := l.proposals.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()
	var response model.ProposalResponse
	switch decision {
	case DecisionAccept:
		err = p.Accept(now)
		response = model.ResponseAccepted
	case DecisionDecline:
		err = p.Decline(now)
		response = model.ResponseDeclined
	default:
		return nil, fmt.Errorf("unknown decision %q", decision)
	}
	if err != nil {
		return nil, err
	}

	if err := l.proposals.Transition(ctx, id, p.State, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.RecordTransitionConflict()
			return nil, model.ErrInvalidState
		}
		return nil, err
	}
	metrics.RecordProposalResponse(string(response))

	if err := l.agg.RecordProposalResponse(ctx, p.RecruiterID, response); err != nil {
		return nil, err
	}
	return p, nil
}

// SweepExpired force-expires every proposal whose deadline has passed. Each
// transition is a conditional write: a concurrent human response winning the
// race leaves a terminal row behind and the sweep skips it as a no-op. The
// whole pass is idempotent, so overlapping ticks and crash-restarts are safe.
// Returns the number of proposals transitioned to timed_out.
func (l *Lifecycle) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSweepRun(float64(time.Since(start).Milliseconds()))
	}()

	expired, err := l.proposals.ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}

	swept := 0
	for i := range expired {
		p := &expired[i]
		if err := l.proposals.Transition(ctx, p.ID, model.StateTimedOut, now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				metrics.RecordTransitionConflict()
				continue
			}
			return swept, fmt.Errorf("sweep: %w", err)
		}
		swept++
		metrics.RecordProposalTimedOut()

		if err := l.agg.RecordProposalResponse(ctx, p.RecruiterID, model.ResponseTimedOut); err != nil {
			l.log().Error(ctx, "recording timed_out outcome failed",
				logger.String("proposalID", p.ID),
				logger.String("recruiterID", p.RecruiterID),
				logger.Error(err),
			)
		}
	}
	return swept, nil
}

// RunSweeper invokes SweepExpired on a fixed interval until ctx is canceled.
// The interval must be short relative to the shortest response window in use.
func (l *Lifecycle) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := l.now().UTC()
			swept, err := l.SweepExpired(ctx, now)
			if err != nil {
				l.log().Error(ctx, "sweep pass failed", logger.Error(err))
				continue
			}
			if swept > 0 {
				l.log().Info(ctx, "sweep pass expired proposals", logger.Int("swept", swept))
			}
		}
	}
}

func (l *Lifecycle) log() logger.Logger {
	if l.logger == nil {
		l.logger = logger.Get().Named("lifecycle")
	}
	return l.logger
}
