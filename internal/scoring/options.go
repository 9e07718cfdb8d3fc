package scoring

import "fmt"

// Options holds the rubric and acceptance thresholds.
type Options struct {
	// A rubric term must be longer than MinTermLength runes.
	MinTermLength int
	// Points awarded per matched term. Uniform across terms.
	TermWeight float64
	// Best-match similarity (0-100) at or above which a term is awarded.
	AcceptanceScore float64
}

// DefaultOptions returns the grading policy used for the final scorecard.
func DefaultOptions() Options {
	return Options{
		MinTermLength:   4,
		TermWeight:      10,
		AcceptanceScore: 80,
	}
}

// WithAcceptanceScore overrides the similarity cutoff.
func (o Options) WithAcceptanceScore(score float64) Options {
	o.AcceptanceScore = score
	return o
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if o.AcceptanceScore < 0 || o.AcceptanceScore > 100 {
		return fmt.Errorf("acceptance score must be in [0,100] (got %g)", o.AcceptanceScore)
	}
	if o.TermWeight <= 0 {
		return fmt.Errorf("term weight must be > 0 (got %g)", o.TermWeight)
	}
	if o.MinTermLength < 0 {
		return fmt.Errorf("min term length must be >= 0 (got %d)", o.MinTermLength)
	}
	return nil
}
