// Package scoring computes the bounded reputation score from aggregate counters.
//
// The calculator is a pure function: no I/O, no state, deterministic. It can
// be property-tested independently of storage.
package scoring

// Default scoring policy constants. All of them are tunable via options; the
// values here exist for reproducibility, not as business-final policy.
const (
	defaultBaseline             = 50.0
	defaultHireWeight           = 0.40
	defaultCompletionWeight     = 0.30
	defaultCollaborationWeight  = 0.15
	defaultResponsivenessWeight = 0.15

	minScore = 0.0
	maxScore = 100.0
)

// Input carries the aggregate counters the score is derived from.
type Input struct {
	TotalSubmissions    int64
	TotalHires          int64
	TotalPlacements     int64
	CompletedPlacements int64
	TotalCollaborations int64
	ProposalsAccepted   int64
	ProposalsDeclined   int64
	ProposalsTimedOut   int64
}

// Result contains the computed score and the derived rates. A nil rate means
// its denominator was zero and the signal contributed nothing.
type Result struct {
	Score              float64
	HireRate           *float64
	CompletionRate     *float64
	CollaborationRate  *float64
	ResponsivenessRate *float64
}

// Calculator derives a bounded reputation score from counters.
type Calculator struct {
	baseline             float64
	hireWeight           float64
	completionWeight     float64
	collaborationWeight  float64
	responsivenessWeight float64
}

// NewCalculator creates a calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		baseline:             defaultBaseline,
		hireWeight:           defaultHireWeight,
		completionWeight:     defaultCompletionWeight,
		collaborationWeight:  defaultCollaborationWeight,
		responsivenessWeight: defaultResponsivenessWeight,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Calculate maps counters to a score in [0,100].
//
// The score starts at the baseline. Each signal with a non-zero denominator
// pulls the score up when its rate is above 50% and down when below, scaled
// by its weight: contribution = (rate - 50) * weight. Signals with a zero
// denominator contribute nothing, which is why new recruiters sit near the
// baseline instead of being penalized for inactivity.
func (c *Calculator) Calculate(in Input) Result {
	res := Result{
		HireRate:           rate(in.TotalHires, in.TotalSubmissions),
		CompletionRate:     rate(in.CompletedPlacements, in.TotalPlacements),
		CollaborationRate:  rate(in.TotalCollaborations, in.TotalPlacements),
		ResponsivenessRate: responsiveness(in),
	}

	score := c.baseline
	score += contribution(res.HireRate, c.hireWeight)
	score += contribution(res.CompletionRate, c.completionWeight)
	score += contribution(res.CollaborationRate, c.collaborationWeight)
	score += contribution(res.ResponsivenessRate, c.responsivenessWeight)

	res.Score = clamp(score, minScore, maxScore)
	return res
}

// rate returns num/den as a percentage, or nil when the denominator is zero.
func rate(num, den int64) *float64 {
	if den == 0 {
		return nil
	}
	r := float64(num) / float64(den) * 100
	return &r
}

// responsiveness is (accepted + declined) / (accepted + declined + timed_out).
// Answering promptly, whether yes or no, beats letting proposals lapse.
func responsiveness(in Input) *float64 {
	answered := in.ProposalsAccepted + in.ProposalsDeclined
	return rate(answered, answered+in.ProposalsTimedOut)
}

func contribution(r *float64, weight float64) float64 {
	if r == nil {
		return 0
	}
	return (*r - 50) * weight
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
