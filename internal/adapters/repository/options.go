package repository

// ReputationOption applies a configuration option to the reputation store.
type ReputationOption func(*SQLiteReputationStore)

// WithBaseline sets the neutral score newly created aggregates start at.
func WithBaseline(baseline float64) ReputationOption {
	return func(s *SQLiteReputationStore) {
		if baseline >= 0 && baseline <= 100 {
			s.baseline = baseline
		}
	}
}
