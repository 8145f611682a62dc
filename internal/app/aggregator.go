package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/talentbridge/talentbridge/internal/adapters/repository"
	"github.com/talentbridge/talentbridge/internal/domain/model"
	"github.com/talentbridge/talentbridge/internal/domain/scoring"
	"github.com/talentbridge/talentbridge/pkg/logger"
	"github.com/talentbridge/talentbridge/pkg/metrics"

	eventpub "github.com/talentbridge/talentbridge/internal/adapters/mq/publisher"
)

// Aggregator orchestrates outcome recording against recruiter aggregates:
// load-or-create, atomic increment, recalculate, conditionally publish.
type Aggregator struct {
	store     repository.ReputationStore
	calc      *scoring.Calculator
	publisher eventpub.Publisher
	threshold float64
	logger    logger.Logger

	// Injectable clock for testing.
	now func() time.Time
}

// AggregatorOption applies a configuration option to the Aggregator.
type AggregatorOption func(*Aggregator)

// WithSignificanceThreshold sets the minimum score delta that publishes a
// change event.
func WithSignificanceThreshold(threshold float64) AggregatorOption {
	return func(a *Aggregator) {
		if threshold >= 0 {
			a.threshold = threshold
		}
	}
}

// WithAggregatorClock injects a clock, for tests.
func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithAggregatorLogger sets a custom logger.
func WithAggregatorLogger(l logger.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an aggregator over the given collaborators.
func NewAggregator(store repository.ReputationStore, calc *scoring.Calculator, pub eventpub.Publisher, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		store:     store,
		calc:      calc,
		publisher: pub,
		threshold: 5,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Get returns the recruiter's aggregate, creating a zero-valued one on first
// access.
func (a *Aggregator) Get(ctx context.Context, recruiterID string) (*model.RecruiterReputation, error) {
	return a.store.GetOrCreate(ctx, recruiterID)
}

// RecordProposalResponse applies a proposal outcome and recalculates.
func (a *Aggregator) RecordProposalResponse(ctx context.Context, recruiterID string, response model.ProposalResponse) error {
	counter, ok := response.Counter()
	if !ok {
		return fmt.Errorf("record proposal response: unknown outcome %q", response)
	}
	if err := a.store.Increment(ctx, recruiterID, counter, 1); err != nil {
		return fmt.Errorf("record proposal response: %w", err)
	}
	metrics.RecordOutcome()
	if _, err := a.Recalculate(ctx, recruiterID); err != nil {
		return err
	}
	return nil
}

// RecordPlacementOutcome applies a placement result and recalculates.
// Increments total placements always, exactly one of completed/failed, and
// collaborations when the placement was a collaboration.
func (a *Aggregator) RecordPlacementOutcome(ctx context.Context, recruiterID string, completed, wasCollaboration bool) error {
	deltas := map[model.Counter]int64{
		model.CounterPlacements: 1,
	}
	if completed {
		deltas[model.CounterCompletedPlacements] = 1
	} else {
		deltas[model.CounterFailedPlacements] = 1
	}
	if wasCollaboration {
		deltas[model.CounterCollaborations] = 1
	}
	if err := a.store.ApplyIncrements(ctx, recruiterID, deltas); err != nil {
		return fmt.Errorf("record placement outcome: %w", err)
	}
	metrics.RecordOutcome()
	if _, err := a.Recalculate(ctx, recruiterID); err != nil {
		return err
	}
	return nil
}

// IncrementSubmissions bumps the submission counter. Submissions are frequent
// and score-light, so no recalculation happens here; the next recalculation
// picks the new denominator up.
func (a *Aggregator) IncrementSubmissions(ctx context.Context, recruiterID string) error {
	if err := a.store.Increment(ctx, recruiterID, model.CounterSubmissions, 1); err != nil {
		return fmt.Errorf("increment submissions: %w", err)
	}
	metrics.RecordOutcome()
	return nil
}

// IncrementHires bumps the hire counter and recalculates: hires are rare and
// score-significant enough to always recompute.
func (a *Aggregator) IncrementHires(ctx context.Context, recruiterID string) error {
	if err := a.store.Increment(ctx, recruiterID, model.CounterHires, 1); err != nil {
		return fmt.Errorf("increment hires: %w", err)
	}
	metrics.RecordOutcome()
	if _, err := a.Recalculate(ctx, recruiterID); err != nil {
		return err
	}
	return nil
}

// Recalculate recomputes the derived fields from current counters, persists
// them, and publishes a reputation.updated event when the score has moved at
// least the significance threshold away from the last announced score. The
// claim on the announced score is a conditional write, so concurrent
// recalculations publish exactly one event per crossing.
func (a *Aggregator) Recalculate(ctx context.Context, recruiterID string) (*model.RecruiterReputation, error) {
	rep, err := a.store.GetOrCreate(ctx, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("recalculate: %w", err)
	}

	res := a.calc.Calculate(scoring.Input{
		TotalSubmissions:    rep.TotalSubmissions,
		TotalHires:          rep.TotalHires,
		TotalPlacements:     rep.TotalPlacements,
		CompletedPlacements: rep.CompletedPlacements,
		TotalCollaborations: rep.TotalCollaborations,
		ProposalsAccepted:   rep.ProposalsAccepted,
		ProposalsDeclined:   rep.ProposalsDeclined,
		ProposalsTimedOut:   rep.ProposalsTimedOut,
	})

	now := a.now().UTC()
	if err := a.store.SaveDerived(ctx, recruiterID, repository.Derived{
		HireRate:          res.HireRate,
		CompletionRate:    res.CompletionRate,
		CollaborationRate: res.CollaborationRate,
		Score:             res.Score,
		CalculatedAt:      now,
	}); err != nil {
		return nil, fmt.Errorf("recalculate: %w", err)
	}
	metrics.RecordRecalculation()

	rep.HireRate = res.HireRate
	rep.CompletionRate = res.CompletionRate
	rep.CollaborationRate = res.CollaborationRate
	rep.ReputationScore = res.Score
	rep.LastCalculatedAt = &now

	if math.Abs(res.Score-rep.LastEventScore) >= a.threshold {
		a.publishChange(ctx, rep, res.Score, now)
	}

	return rep, nil
}

// publishChange claims the announced-score slot and emits the event. Publish
// failures are logged, never rolled back: the aggregate is the source of
// truth and the event a best-effort notification.
func (a *Aggregator) publishChange(ctx context.Context, rep *model.RecruiterReputation, newScore float64, now time.Time) {
	claimed, err := a.store.ClaimChangeEvent(ctx, rep.RecruiterID, rep.LastEventScore, newScore)
	if err != nil {
		a.log().Error(ctx, "change event claim failed",
			logger.String("recruiterID", rep.RecruiterID),
			logger.Error(err),
		)
		return
	}
	if !claimed {
		// Another recalculation already announced this movement.
		return
	}

	ev := model.ReputationChangeEvent{
		RecruiterID: rep.RecruiterID,
		OldScore:    rep.LastEventScore,
		NewScore:    newScore,
		Reason:      model.ReasonRecalculation,
		OccurredAt:  now,
	}
	rep.LastEventScore = newScore

	if err := a.publisher.Publish(ctx, ev); err != nil {
		a.log().Error(ctx, "reputation event publish failed",
			logger.String("recruiterID", rep.RecruiterID),
			logger.Float64("oldScore", ev.OldScore),
			logger.Float64("newScore", ev.NewScore),
			logger.Error(err),
		)
	}
}

func (a *Aggregator) log() logger.Logger {
	if a.logger == nil {
		a.logger = logger.Get().Named("aggregator")
	}
	return a.logger
}
