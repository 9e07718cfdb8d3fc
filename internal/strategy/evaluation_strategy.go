package strategy

import (
	"context"

	"go-script-evaluator/internal/analyzer"
	"go-script-evaluator/internal/grouping"
	"go-script-evaluator/internal/scoring"
	"go-script-evaluator/internal/segmentation"
)

// PageInput is one segmented student page.
type PageInput struct {
	Number  int
	Regions []segmentation.LineRegion
	// Key is the answer key; strategies that grade ignore pages when nil.
	Key *grouping.QuestionBlocks
}

// PageOutcome is what a strategy produced for one page.
type PageOutcome struct {
	Metrics analyzer.PageMetrics
	Blocks  *grouping.QuestionBlocks
	Grades  []scoring.GradeResult
}

// EvaluationStrategy defines how a segmented page is evaluated
type EvaluationStrategy interface {
	Evaluate(ctx context.Context, page PageInput) (PageOutcome, error)
	// RequiresKey reports whether the answer key must be extracted first.
	RequiresKey() bool
	GetStrategyName() string
}

// FullEvaluationStrategy grades answers and measures presentation
type FullEvaluationStrategy struct {
	metrics analyzer.MetricsCalculator
	grouper grouping.Grouper
	scorer  scoring.Scorer
}

// NewFullEvaluationStrategy creates a new full evaluation strategy
func NewFullEvaluationStrategy(metrics analyzer.MetricsCalculator, grouper grouping.Grouper, scorer scoring.Scorer) EvaluationStrategy {
	return &FullEvaluationStrategy{
		metrics: metrics,
		grouper: grouper,
		scorer:  scorer,
	}
}

// Evaluate groups the page into question blocks and grades them against the key.
func (s *FullEvaluationStrategy) Evaluate(ctx context.Context, page PageInput) (PageOutcome, error) {
	out := PageOutcome{Metrics: s.metrics.Calculate(page.Regions)}
	if len(page.Regions) == 0 || page.Key == nil {
		return out, nil
	}

	blocks, err := s.grouper.Group(ctx, page.Regions)
	if err != nil {
		return out, err
	}
	out.Blocks = blocks
	out.Grades = s.scorer.GradePaper(blocks, page.Key)
	return out, nil
}

// RequiresKey returns true
func (s *FullEvaluationStrategy) RequiresKey() bool {
	return true
}

// GetStrategyName returns the strategy name
func (s *FullEvaluationStrategy) GetStrategyName() string {
	return "full_evaluation"
}

// PresentationOnlyStrategy measures presentation without transcribing anything
type PresentationOnlyStrategy struct {
	metrics analyzer.MetricsCalculator
}

// NewPresentationOnlyStrategy creates a new presentation only strategy
func NewPresentationOnlyStrategy(metrics analyzer.MetricsCalculator) EvaluationStrategy {
	return &PresentationOnlyStrategy{
		metrics: metrics,
	}
}

// Evaluate computes the page metrics only.
func (s *PresentationOnlyStrategy) Evaluate(_ context.Context, page PageInput) (PageOutcome, error) {
	return PageOutcome{Metrics: s.metrics.Calculate(page.Regions)}, nil
}

// RequiresKey returns false
func (s *PresentationOnlyStrategy) RequiresKey() bool {
	return false
}

// GetStrategyName returns the strategy name
func (s *PresentationOnlyStrategy) GetStrategyName() string {
	return "presentation_only"
}

// EvaluationContext manages the evaluation strategy
type EvaluationContext struct {
	strategy EvaluationStrategy
}

// NewEvaluationContext creates a new evaluation context
func NewEvaluationContext(strategy EvaluationStrategy) *EvaluationContext {
	return &EvaluationContext{
		strategy: strategy,
	}
}

// SetStrategy changes the evaluation strategy
func (c *EvaluationContext) SetStrategy(strategy EvaluationStrategy) {
	c.strategy = strategy
}

// Strategy returns the current strategy
func (c *EvaluationContext) Strategy() EvaluationStrategy {
	return c.strategy
}

// ExecuteEvaluation evaluates a page using the current strategy
func (c *EvaluationContext) ExecuteEvaluation(ctx context.Context, page PageInput) (PageOutcome, error) {
	return c.strategy.Evaluate(ctx, page)
}

// GetCurrentStrategy returns the current strategy name
func (c *EvaluationContext) GetCurrentStrategy() string {
	return c.strategy.GetStrategyName()
}
