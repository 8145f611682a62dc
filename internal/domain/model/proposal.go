// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"time"
)

// ProposalState is the lifecycle state of a collaboration proposal.
type ProposalState string

// Proposal states. Proposed is the only initial state; the other three are
// terminal and a proposal takes exactly one terminal transition ever.
const (
	StateProposed ProposalState = "proposed"
	StateAccepted ProposalState = "accepted"
	StateDeclined ProposalState = "declined"
	StateTimedOut ProposalState = "timed_out"
)

// Terminal reports whether the state admits no further transitions.
func (s ProposalState) Terminal() bool {
	return s == StateAccepted || s == StateDeclined || s == StateTimedOut
}

// Valid reports whether s is a known proposal state.
func (s ProposalState) Valid() bool {
	switch s {
	case StateProposed, StateAccepted, StateDeclined, StateTimedOut:
		return true
	}
	return false
}

// Transition errors.
var (
	// ErrInvalidState means the proposal is not in a state that permits the
	// requested transition.
	ErrInvalidState = errors.New("proposal not in proposed state")

	// ErrExpired means a human response arrived after the response deadline.
	// Expiry is checked on read so a late click never wins a race with the sweep.
	ErrExpired = errors.New("proposal response window has elapsed")

	// ErrNotDue means a timeout transition was attempted before the deadline.
	ErrNotDue = errors.New("proposal response window has not elapsed")
)

// Proposal is a time-bounded offer from a recruiter to collaborate on a
// candidate for a job. ResponseDueAt is fixed at creation and never mutated;
// the record itself is never deleted, forming an immutable audit trail.
type Proposal struct {
	ID            string        `json:"id"`
	RecruiterID   string        `json:"recruiter_id"`
	CandidateID   string        `json:"candidate_id"`
	JobID         string        `json:"job_id"`
	State         ProposalState `json:"state"`
	ProposedAt    time.Time     `json:"proposed_at"`
	ResponseDueAt time.Time     `json:"response_due_at"`
	RespondedAt   *time.Time    `json:"responded_at,omitempty"`
}

// Accept transitions proposed -> accepted. Fails with ErrInvalidState when the
// proposal is already terminal and ErrExpired when now is past the deadline.
func (p *Proposal) Accept(now time.Time) error {
	return p.respond(StateAccepted, now)
}

// Decline transitions proposed -> declined under the same preconditions as Accept.
func (p *Proposal) Decline(now time.Time) error {
	return p.respond(StateDeclined, now)
}

func (p *Proposal) respond(to ProposalState, now time.Time) error {
	if p.State != StateProposed {
		return ErrInvalidState
	}
	if now.After(p.ResponseDueAt) {
		return ErrExpired
	}
	p.State = to
	t := now
	p.RespondedAt = &t
	return nil
}

// TimeOut transitions proposed -> timed_out. Only legal once the deadline has
// elapsed; fails with ErrNotDue before that and ErrInvalidState afterwards if
// a human response already landed.
func (p *Proposal) TimeOut(now time.Time) error {
	if p.State != StateProposed {
		return ErrInvalidState
	}
	if now.Before(p.ResponseDueAt) {
		return ErrNotDue
	}
	p.State = StateTimedOut
	t := now
	p.RespondedAt = &t
	return nil
}

// Overdue reports whether the response window has elapsed while the proposal
// is still awaiting a response.
func (p *Proposal) Overdue(now time.Time) bool {
	return p.State == StateProposed && !now.Before(p.ResponseDueAt)
}
