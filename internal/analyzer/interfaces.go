package analyzer

import "go-script-evaluator/internal/segmentation"

// MetricsCalculator derives presentation metrics from a page's line regions.
// It never looks at transcribed text.
type MetricsCalculator interface {
	Neatness(regions []segmentation.LineRegion) float64
	Slant(regions []segmentation.LineRegion) float64
	EstimateContent(regions []segmentation.LineRegion) int

	// Calculate runs every enabled metric.
	Calculate(regions []segmentation.LineRegion) PageMetrics
}
