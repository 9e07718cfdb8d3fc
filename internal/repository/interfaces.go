package repository

import (
	"context"

	"go-script-evaluator/pkg/models"
)

// ReportRepository defines the interface for evaluation report storage
type ReportRepository interface {
	// SaveReport stores a report, replacing any report with the same ID
	SaveReport(ctx context.Context, report *models.EvaluationReport) error

	// GetReport retrieves a stored report
	GetReport(ctx context.Context, id string) (*models.EvaluationReport, error)

	// ListReports returns summaries of the most recent reports for a student document
	ListReports(ctx context.Context, studentSource string, limit int) ([]ReportSummary, error)

	Close() error
}

// ReportSummary is the indexed part of a stored report.
type ReportSummary struct {
	ID                 string  `json:"id"`
	StudentSource      string  `json:"student_source"`
	Strategy           string  `json:"strategy"`
	MeanScore          float64 `json:"mean_score"`
	MeanNeatness       float64 `json:"mean_neatness"`
	QuestionsEvaluated int     `json:"questions_evaluated"`
	CreatedAt          int64   `json:"created_at"`
}
