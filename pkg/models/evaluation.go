package models

import "time"

// QuestionResult is the grade for one question label on one page.
type QuestionResult struct {
	Label    string   `json:"label"`
	Page     int      `json:"page"`
	Score    float64  `json:"score"`
	Status   string   `json:"status"`
	Evidence []string `json:"evidence"`

	// Syllabus metadata, filled when a mapping is loaded
	Module string `json:"module,omitempty"`
	Bloom  string `json:"bloom,omitempty"`

	// Transcription fidelity against the key text (graded questions only)
	WER *float64 `json:"word_error_rate,omitempty"`
	CER *float64 `json:"character_error_rate,omitempty"`
}

// PageReport holds presentation metrics and grades for one student page.
type PageReport struct {
	Page      int              `json:"page"`
	Lines     int              `json:"lines"`
	Neatness  float64          `json:"neatness"`
	Slant     float64          `json:"slant_degrees"`
	WordCount int              `json:"word_count"`
	Questions []QuestionResult `json:"questions,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Breakdown is the average score of a group of questions.
type Breakdown struct {
	Name         string  `json:"name"`
	Questions    int     `json:"questions"`
	AverageScore float64 `json:"average_score"`
}

// Scorecard aggregates a run across pages.
type Scorecard struct {
	Questions          []QuestionResult `json:"questions"`
	MeanNeatness       float64          `json:"mean_neatness"`
	MeanScore          float64          `json:"mean_score"`
	QuestionsEvaluated int              `json:"questions_evaluated"`
	PagesProcessed     int              `json:"pages_processed"`
	Modules            []Breakdown      `json:"modules,omitempty"`
	BloomLevels        []Breakdown      `json:"bloom_levels,omitempty"`
}

// EvaluationReport is the complete result of evaluating one script.
type EvaluationReport struct {
	ID                string       `json:"id"`
	StudentSource     string       `json:"student_source"`
	KeySource         string       `json:"key_source,omitempty"`
	Strategy          string       `json:"strategy"`
	CreatedAt         time.Time    `json:"created_at"`
	ProcessingTimeSec float64      `json:"processing_time_sec"`
	KeyQuestions      []string     `json:"key_questions,omitempty"`
	Pages             []PageReport `json:"pages"`
	Scorecard         Scorecard    `json:"scorecard"`
	// Stopped is set when the run ended before the last page.
	Stopped bool     `json:"stopped,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}
