package analyzer

import "fmt"

// MetricsOptions configures the presentation metrics.
type MetricsOptions struct {
	// Neatness composition
	HeightWeight         float64
	MarginWeight         float64
	HeightPenalty        float64
	MarginPenalty        float64
	FallbackMarginSpread float64

	// Edge detection thresholds
	CannyLow  float64
	CannyHigh float64

	// Segment detection
	HoughThreshold int
	MinLineLength  int
	MaxLineGap     int
	// Segments at or beyond this angle (degrees) are treated as vertical strokes.
	MaxSlantAngle float64
	// Seed for the randomized segment search.
	Seed int64

	// Word blob kernel
	WordKernelWidth  int
	WordKernelHeight int

	// Feature toggles
	SkipSlant   bool
	SkipContent bool
}

// DefaultOptions returns the default presentation metric settings.
func DefaultOptions() MetricsOptions {
	return MetricsOptions{
		HeightWeight:         0.6,
		MarginWeight:         0.4,
		HeightPenalty:        1.2,
		MarginPenalty:        0.7,
		FallbackMarginSpread: 20,
		CannyLow:             50,
		CannyHigh:            150,
		HoughThreshold:       40,
		MinLineLength:        30,
		MaxLineGap:           10,
		MaxSlantAngle:        45,
		Seed:                 1,
		WordKernelWidth:      15,
		WordKernelHeight:     2,
	}
}

// FastOptions skips the edge based slant metric.
func FastOptions() MetricsOptions {
	return DefaultOptions().Fast()
}

// Fast returns a copy that skips slant. Word counts are still estimated.
func (opts MetricsOptions) Fast() MetricsOptions {
	opts.SkipSlant = true
	return opts
}

// WithNeatnessWeights overrides the height/margin split.
func (opts MetricsOptions) WithNeatnessWeights(height, margin float64) MetricsOptions {
	opts.HeightWeight = height
	opts.MarginWeight = margin
	return opts
}

// WithSegmentThresholds overrides the segment detector settings.
func (opts MetricsOptions) WithSegmentThresholds(votes, minLength, maxGap int) MetricsOptions {
	opts.HoughThreshold = votes
	opts.MinLineLength = minLength
	opts.MaxLineGap = maxGap
	return opts
}

// Validate reports the first invalid field.
func (opts MetricsOptions) Validate() error {
	if opts.HeightWeight < 0 || opts.MarginWeight < 0 {
		return fmt.Errorf("neatness weights must be >= 0 (got %g, %g)", opts.HeightWeight, opts.MarginWeight)
	}
	if opts.CannyLow > opts.CannyHigh {
		return fmt.Errorf("canny low threshold %g exceeds high threshold %g", opts.CannyLow, opts.CannyHigh)
	}
	if opts.HoughThreshold < 1 || opts.MinLineLength < 0 || opts.MaxLineGap < 0 {
		return fmt.Errorf("invalid segment thresholds (votes=%d, length=%d, gap=%d)",
			opts.HoughThreshold, opts.MinLineLength, opts.MaxLineGap)
	}
	if opts.WordKernelWidth < 1 || opts.WordKernelHeight < 1 {
		return fmt.Errorf("word kernel must be at least 1x1 (got %dx%d)", opts.WordKernelWidth, opts.WordKernelHeight)
	}
	return nil
}
