package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/talentbridge/talentbridge/internal/domain/model"
	"github.com/talentbridge/talentbridge/pkg/metrics"
)

// counterColumns whitelists the incrementable aggregate columns.
var counterColumns = map[model.Counter]struct{}{
	model.CounterSubmissions:         {},
	model.CounterHires:               {},
	model.CounterPlacements:          {},
	model.CounterCompletedPlacements: {},
	model.CounterFailedPlacements:    {},
	model.CounterCollaborations:      {},
	model.CounterProposalsAccepted:   {},
	model.CounterProposalsDeclined:   {},
	model.CounterProposalsTimedOut:   {},
}

// SQLiteReputationStore implements ReputationStore on the shared DB handle.
type SQLiteReputationStore struct {
	db       *DB
	baseline float64
}

// NewReputationStore creates the reputation store.
func NewReputationStore(db *DB, opts ...ReputationOption) *SQLiteReputationStore {
	s := &SQLiteReputationStore{
		db:       db,
		baseline: 50,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ensure lazily creates the aggregate row at the neutral baseline.
func (s *SQLiteReputationStore) ensure(ctx context.Context, recruiterID string) error {
	_, err := s.db.sql.ExecContext(ctx, `
		INSERT INTO recruiter_reputation (recruiter_id, reputation_score, last_event_score)
		VALUES (?, ?, ?)
		ON CONFLICT(recruiter_id) DO NOTHING
	`, recruiterID, s.baseline, s.baseline)
	if err != nil {
		return fmt.Errorf("ensure aggregate: %w", err)
	}
	return nil
}

// GetOrCreate returns the aggregate, creating it on first access.
func (s *SQLiteReputationStore) GetOrCreate(ctx context.Context, recruiterID string) (*model.RecruiterReputation, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := s.ensure(ctx, recruiterID); err != nil {
		return nil, err
	}

	row := s.db.sql.QueryRowContext(ctx, `
		SELECT recruiter_id,
		       total_submissions, total_hires,
		       total_placements, completed_placements, failed_placements,
		       total_collaborations,
		       proposals_accepted, proposals_declined, proposals_timed_out,
		       hire_rate, completion_rate, collaboration_rate,
		       reputation_score, last_event_score, last_calculated_at
		FROM recruiter_reputation WHERE recruiter_id = ?
	`, recruiterID)
	return scanReputation(row)
}

// Increment atomically adds delta to a single counter.
func (s *SQLiteReputationStore) Increment(ctx context.Context, recruiterID string, counter model.Counter, delta int64) error {
	return s.ApplyIncrements(ctx, recruiterID, map[model.Counter]int64{counter: delta})
}

// ApplyIncrements adds all deltas in one UPDATE. The increment happens inside
// the statement, so concurrent recordings never lose an update.
func (s *SQLiteReputationStore) ApplyIncrements(ctx context.Context, recruiterID string, deltas map[model.Counter]int64) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if len(deltas) == 0 {
		return nil
	}

	// Deterministic column order keeps the statement stable.
	counters := make([]string, 0, len(deltas))
	for c := range deltas {
		if _, ok := counterColumns[c]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCounter, c)
		}
		counters = append(counters, string(c))
	}
	sort.Strings(counters)

	if err := s.ensure(ctx, recruiterID); err != nil {
		return err
	}

	sets := make([]string, 0, len(counters))
	args := make([]any, 0, len(counters)+1)
	for _, c := range counters {
		sets = append(sets, fmt.Sprintf("%s = %s + ?", c, c))
		args = append(args, deltas[model.Counter(c)])
	}
	args = append(args, recruiterID)

	query := "UPDATE recruiter_reputation SET " + strings.Join(sets, ", ") + " WHERE recruiter_id = ?"
	if _, err := s.db.sql.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply increments: %w", err)
	}
	return nil
}

// SaveDerived persists the recomputed rates and score.
func (s *SQLiteReputationStore) SaveDerived(ctx context.Context, recruiterID string, d Derived) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	_, err := s.db.sql.ExecContext(ctx, `
		UPDATE recruiter_reputation
		SET hire_rate = ?, completion_rate = ?, collaboration_rate = ?,
		    reputation_score = ?, last_calculated_at = ?
		WHERE recruiter_id = ?
	`, nullFloat(d.HireRate), nullFloat(d.CompletionRate), nullFloat(d.CollaborationRate),
		d.Score, d.CalculatedAt.UnixNano(), recruiterID)
	if err != nil {
		return fmt.Errorf("save derived: %w", err)
	}
	return nil
}

// ClaimChangeEvent conditionally advances last_event_score. The WHERE clause
// makes exactly one concurrent recalculation win the right to publish.
func (s *SQLiteReputationStore) ClaimChangeEvent(ctx context.Context, recruiterID string, fromScore, toScore float64) (bool, error) {
	res, err := s.db.sql.ExecContext(ctx, `
		UPDATE recruiter_reputation
		SET last_event_score = ?
		WHERE recruiter_id = ? AND last_event_score = ?
	`, toScore, recruiterID, fromScore)
	if err != nil {
		return false, fmt.Errorf("claim change event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim change event: %w", err)
	}
	return n == 1, nil
}

// TopN returns the highest-scoring aggregates, recruiter id breaking ties.
func (s *SQLiteReputationStore) TopN(ctx context.Context, n int) ([]model.RecruiterReputation, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.sql.QueryContext(ctx, `
		SELECT recruiter_id,
		       total_submissions, total_hires,
		       total_placements, completed_placements, failed_placements,
		       total_collaborations,
		       proposals_accepted, proposals_declined, proposals_timed_out,
		       hire_rate, completion_rate, collaboration_rate,
		       reputation_score, last_event_score, last_calculated_at
		FROM recruiter_reputation
		ORDER BY reputation_score DESC, recruiter_id ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("top n: %w", err)
	}
	defer rows.Close()

	var out []model.RecruiterReputation
	for rows.Next() {
		rep, err := scanReputation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top n: %w", err)
	}
	return out, nil
}

// Count returns the number of aggregates tracked.
func (s *SQLiteReputationStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM recruiter_reputation`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count aggregates: %w", err)
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReputation(sc scanner) (*model.RecruiterReputation, error) {
	var (
		rep          model.RecruiterReputation
		hireRate     sql.NullFloat64
		completion   sql.NullFloat64
		collab       sql.NullFloat64
		calculatedAt sql.NullInt64
	)
	err := sc.Scan(
		&rep.RecruiterID,
		&rep.TotalSubmissions, &rep.TotalHires,
		&rep.TotalPlacements, &rep.CompletedPlacements, &rep.FailedPlacements,
		&rep.TotalCollaborations,
		&rep.ProposalsAccepted, &rep.ProposalsDeclined, &rep.ProposalsTimedOut,
		&hireRate, &completion, &collab,
		&rep.ReputationScore, &rep.LastEventScore, &calculatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan aggregate: %w", err)
	}
	rep.HireRate = floatPtr(hireRate)
	rep.CompletionRate = floatPtr(completion)
	rep.CollaborationRate = floatPtr(collab)
	if calculatedAt.Valid {
		t := time.Unix(0, calculatedAt.Int64).UTC()
		rep.LastCalculatedAt = &t
	}
	return &rep, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
