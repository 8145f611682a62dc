package model

import "time"

// Counter names the incrementable fields of a RecruiterReputation aggregate.
// Stores key atomic increments on these values; they map 1:1 to columns.
type Counter string

// Aggregate counters. All are monotonically non-decreasing for the lifetime
// of the record: outcomes are never un-recorded.
const (
	CounterSubmissions          Counter = "total_submissions"
	CounterHires                Counter = "total_hires"
	CounterPlacements           Counter = "total_placements"
	CounterCompletedPlacements  Counter = "completed_placements"
	CounterFailedPlacements     Counter = "failed_placements"
	CounterCollaborations       Counter = "total_collaborations"
	CounterProposalsAccepted    Counter = "proposals_accepted"
	CounterProposalsDeclined    Counter = "proposals_declined"
	CounterProposalsTimedOut    Counter = "proposals_timed_out"
)

// RecruiterReputation is the per-recruiter aggregate: counters plus derived
// fields. Created lazily on first access, mutated only through the
// aggregator, never deleted. Derived rates are nil (not zero) when their
// denominator is zero so brand-new recruiters are not penalized.
type RecruiterReputation struct {
	RecruiterID string `json:"recruiter_id"`

	TotalSubmissions    int64 `json:"total_submissions"`
	TotalHires          int64 `json:"total_hires"`
	TotalPlacements     int64 `json:"total_placements"`
	CompletedPlacements int64 `json:"completed_placements"`
	FailedPlacements    int64 `json:"failed_placements"`
	TotalCollaborations int64 `json:"total_collaborations"`
	ProposalsAccepted   int64 `json:"proposals_accepted"`
	ProposalsDeclined   int64 `json:"proposals_declined"`
	ProposalsTimedOut   int64 `json:"proposals_timed_out"`

	HireRate          *float64 `json:"hire_rate"`
	CompletionRate    *float64 `json:"completion_rate"`
	CollaborationRate *float64 `json:"collaboration_rate"`

	// ReputationScore is always within [0,100].
	ReputationScore float64 `json:"reputation_score"`

	// LastEventScore is the score carried by the most recent published
	// change event (the baseline until one fires). The significance check
	// compares against it so cumulative drift still triggers a notification
	// at the crossing recalculation.
	LastEventScore float64 `json:"-"`

	LastCalculatedAt *time.Time `json:"last_calculated_at"`
}

// ProposalResponse is the outcome of a single proposal, as recorded against
// the responding recruiter's aggregate.
type ProposalResponse string

// Proposal response outcomes.
const (
	ResponseAccepted ProposalResponse = "accepted"
	ResponseDeclined ProposalResponse = "declined"
	ResponseTimedOut ProposalResponse = "timed_out"
)

// Counter maps the response to the aggregate counter it increments.
func (r ProposalResponse) Counter() (Counter, bool) {
	switch r {
	case ResponseAccepted:
		return CounterProposalsAccepted, true
	case ResponseDeclined:
		return CounterProposalsDeclined, true
	case ResponseTimedOut:
		return CounterProposalsTimedOut, true
	}
	return "", false
}

// ReputationChangeEvent is the transient notification emitted when a
// recalculated score moves past the significance threshold. It is not
// persisted by the core; delivery is at-least-once and consumers de-duplicate
// by recruiter id and occurrence time when exactly-once matters to them.
type ReputationChangeEvent struct {
	RecruiterID string    `json:"recruiter_id"`
	OldScore    float64   `json:"old_score"`
	NewScore    float64   `json:"new_score"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ReasonRecalculation is the default change-event reason.
const ReasonRecalculation = "recalculation"
