package grouping

import "fmt"

// Options configures margin-cue grouping.
type Options struct {
	// Crops shorter than this are skipped.
	MinLineHeight int
	// Leftmost fraction of the line width read for question numbers.
	MarginFraction float64
	// Full lines are resized by this factor before transcription.
	LineScale float64
	// Label used until the first question number is found.
	DefaultLabel string
}

// DefaultOptions returns the grouping defaults.
func DefaultOptions() Options {
	return Options{
		MinLineHeight:  15,
		MarginFraction: 0.12,
		LineScale:      0.5,
		DefaultLabel:   DefaultLabel,
	}
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if o.MarginFraction <= 0 || o.MarginFraction >= 1 {
		return fmt.Errorf("margin fraction must be in (0,1) (got %g)", o.MarginFraction)
	}
	if o.LineScale <= 0 || o.LineScale > 1 {
		return fmt.Errorf("line scale must be in (0,1] (got %g)", o.LineScale)
	}
	if o.DefaultLabel == "" {
		return fmt.Errorf("default label must not be empty")
	}
	return nil
}
