package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/talentbridge/talentbridge/internal/domain/model"
	"github.com/talentbridge/talentbridge/pkg/metrics"
)

// SQLiteProposalStore implements ProposalStore on the shared DB handle.
type SQLiteProposalStore struct {
	db *DB
}

// NewProposalStore creates the proposal store.
func NewProposalStore(db *DB) *SQLiteProposalStore {
	return &SQLiteProposalStore{db: db}
}

// Create persists a new proposal in the proposed state.
func (s *SQLiteProposalStore) Create(ctx context.Context, p *model.Proposal) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	_, err := s.db.sql.ExecContext(ctx, `
		INSERT INTO proposals (id, recruiter_id, candidate_id, job_id, state, proposed_at, response_due_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.RecruiterID, p.CandidateID, p.JobID, string(model.StateProposed),
		p.ProposedAt.UnixNano(), p.ResponseDueAt.UnixNano())
	if err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

// Get returns a proposal or ErrNotFound.
func (s *SQLiteProposalStore) Get(ctx context.Context, id string) (*model.Proposal, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	row := s.db.sql.QueryRowContext(ctx, `
		SELECT id, recruiter_id, candidate_id, job_id, state, proposed_at, response_due_at, responded_at
		FROM proposals WHERE id = ?
	`, id)
	p, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("proposal %s: %w", id, ErrNotFound)
	}
	return p, err
}

// Transition conditionally moves a proposal out of the proposed state. The
// WHERE clause on the current state guarantees exactly one terminal
// transition even when a human response races the sweep; the loser observes
// ErrConflict and treats it as a no-op.
func (s *SQLiteProposalStore) Transition(ctx context.Context, id string, to model.ProposalState, respondedAt time.Time) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !to.Terminal() {
		return fmt.Errorf("transition to %s: %w", to, model.ErrInvalidState)
	}

	res, err := s.db.sql.ExecContext(ctx, `
		UPDATE proposals SET state = ?, responded_at = ?
		WHERE id = ? AND state = ?
	`, string(to), respondedAt.UnixNano(), id, string(model.StateProposed))
	if err != nil {
		return fmt.Errorf("transition proposal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition proposal: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("proposal %s: %w", id, ErrConflict)
	}
	return nil
}

// ListExpired returns proposals still awaiting a response past their deadline.
func (s *SQLiteProposalStore) ListExpired(ctx context.Context, now time.Time) ([]model.Proposal, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.sql.QueryContext(ctx, `
		SELECT id, recruiter_id, candidate_id, job_id, state, proposed_at, response_due_at, responded_at
		FROM proposals
		WHERE state = ? AND response_due_at <= ?
		ORDER BY response_due_at ASC
	`, string(model.StateProposed), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	defer rows.Close()

	var out []model.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	return out, nil
}

// CountByState returns the number of proposals per state.
func (s *SQLiteProposalStore) CountByState(ctx context.Context) (map[model.ProposalState]int, error) {
	rows, err := s.db.sql.QueryContext(ctx, `SELECT state, COUNT(*) FROM proposals GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count by state: %w", err)
	}
	defer rows.Close()

	out := make(map[model.ProposalState]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("count by state: %w", err)
		}
		out[model.ProposalState(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by state: %w", err)
	}
	return out, nil
}

func scanProposal(sc scanner) (*model.Proposal, error) {
	var (
		p           model.Proposal
		state       string
		proposedAt  int64
		dueAt       int64
		respondedAt sql.NullInt64
	)
	err := sc.Scan(&p.ID, &p.RecruiterID, &p.CandidateID, &p.JobID, &state, &proposedAt, &dueAt, &respondedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan proposal: %w", err)
	}
	p.State = model.ProposalState(state)
	p.ProposedAt = time.Unix(0, proposedAt).UTC()
	p.ResponseDueAt = time.Unix(0, dueAt).UTC()
	if respondedAt.Valid {
		t := time.Unix(0, respondedAt.Int64).UTC()
		p.RespondedAt = &t
	}
	return &p, nil
}
