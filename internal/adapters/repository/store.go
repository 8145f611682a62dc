// Package repository provides the durable stores for recruiter aggregates and
// proposals, backed by SQLite.
//
// Consistency contract: counter updates are single-statement atomic
// increments, proposal terminal transitions are conditional writes keyed on
// the expected current state, and the change-event claim is a conditional
// write on the last announced score. No caller ever does a read-modify-write
// on shared rows.
package repository

import (
	"context"
	"time"

	"github.com/talentbridge/talentbridge/internal/domain/model"
)

// Derived carries the recomputed fields persisted after a recalculation.
type Derived struct {
	HireRate          *float64
	CompletionRate    *float64
	CollaborationRate *float64
	Score             float64
	CalculatedAt      time.Time
}

// ReputationStore is the durable per-recruiter aggregate store.
type ReputationStore interface {
	// GetOrCreate returns the aggregate, creating a zero-valued one on first
	// access. Never returns ErrNotFound.
	GetOrCreate(ctx context.Context, recruiterID string) (*model.RecruiterReputation, error)

	// Increment atomically adds delta to a single counter, creating the
	// aggregate first if needed.
	Increment(ctx context.Context, recruiterID string, counter model.Counter, delta int64) error

	// ApplyIncrements atomically adds all deltas in one statement, so two
	// concurrent outcome recordings never lose an increment.
	ApplyIncrements(ctx context.Context, recruiterID string, deltas map[model.Counter]int64) error

	// SaveDerived persists the recomputed rates and score.
	SaveDerived(ctx context.Context, recruiterID string, d Derived) error

	// ClaimChangeEvent conditionally advances the last announced score from
	// fromScore to toScore. Returns false when another recalculation already
	// moved it, in which case the caller must not publish.
	ClaimChangeEvent(ctx context.Context, recruiterID string, fromScore, toScore float64) (bool, error)

	// TopN returns the n highest-scoring aggregates, ties broken by
	// recruiter id ascending for determinism.
	TopN(ctx context.Context, n int) ([]model.RecruiterReputation, error)

	// Count returns the number of aggregates tracked.
	Count(ctx context.Context) (int, error)
}

// ProposalStore is the durable proposal store.
type ProposalStore interface {
	// Create persists a new proposal in the proposed state.
	Create(ctx context.Context, p *model.Proposal) error

	// Get returns a proposal or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Proposal, error)

	// Transition conditionally moves a proposal from proposed to the given
	// terminal state. Returns ErrConflict when the proposal is no longer in
	// proposed state (the caller lost a respond/sweep race).
	Transition(ctx context.Context, id string, to model.ProposalState, respondedAt time.Time) error

	// ListExpired returns proposals still proposed whose deadline has passed.
	ListExpired(ctx context.Context, now time.Time) ([]model.Proposal, error)

	// CountByState returns the number of proposals per state.
	CountByState(ctx context.Context) (map[model.ProposalState]int, error)
}
