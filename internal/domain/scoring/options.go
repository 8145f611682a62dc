package scoring

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithBaseline sets the neutral starting score.
func WithBaseline(baseline float64) Option {
	return func(c *Calculator) {
		if baseline >= minScore && baseline <= maxScore {
			c.baseline = baseline
		}
	}
}

// WithWeights sets the four signal weights in one call.
func WithWeights(hire, completion, collaboration, responsiveness float64) Option {
	return func(c *Calculator) {
		if hire >= 0 {
			c.hireWeight = hire
		}
		if completion >= 0 {
			c.completionWeight = completion
		}
		if collaboration >= 0 {
			c.collaborationWeight = collaboration
		}
		if responsiveness >= 0 {
			c.responsivenessWeight = responsiveness
		}
	}
}
