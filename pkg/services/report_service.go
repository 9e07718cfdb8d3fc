package services

import (
	"math"

	"go-script-evaluator/internal/scoring"
	"go-script-evaluator/internal/syllabus"
	"go-script-evaluator/pkg/models"
)

// ReportService turns per-page results into a scorecard.
type ReportService struct {
	syllabus syllabus.Mapping
}

// NewReportService creates a report service. A nil mapping suppresses the
// module and Bloom's taxonomy breakdowns.
func NewReportService(mapping syllabus.Mapping) *ReportService {
	return &ReportService{syllabus: mapping}
}

// QuestionResults converts grades for one page into report rows.
func (s *ReportService) QuestionResults(page int, grades []scoring.GradeResult) []models.QuestionResult {
	out := make([]models.QuestionResult, 0, len(grades))
	for _, g := range grades {
		q := models.QuestionResult{
			Label:    g.Label,
			Page:     page,
			Score:    g.Score,
			Status:   g.Status,
			Evidence: make([]string, 0, len(g.Evidence)),
		}
		for _, e := range g.Evidence {
			q.Evidence = append(q.Evidence, e.String())
		}
		if g.Fidelity != nil {
			wer, cer := g.Fidelity.WER, g.Fidelity.CER
			q.WER, q.CER = &wer, &cer
		}
		if s.syllabus != nil {
			entry := s.syllabus.Lookup(g.Label)
			q.Module, q.Bloom = entry.Module, entry.Bloom
		}
		out = append(out, q)
	}
	return out
}

// BuildScorecard consolidates grades across pages: a label graded on a later
// page replaces the earlier result but keeps its first-seen position.
// Unmatched labels count as zero-score questions. Pages that failed are
// excluded from the neatness mean.
func (s *ReportService) BuildScorecard(pages []models.PageReport) models.Scorecard {
	var order []string
	latest := make(map[string]models.QuestionResult)
	var neatnessSum float64
	processed := 0

	for _, p := range pages {
		if p.Error != "" {
			continue
		}
		processed++
		neatnessSum += p.Neatness
		for _, q := range p.Questions {
			if _, seen := latest[q.Label]; !seen {
				order = append(order, q.Label)
			}
			latest[q.Label] = q
		}
	}

	card := models.Scorecard{
		Questions:      make([]models.QuestionResult, 0, len(order)),
		PagesProcessed: processed,
	}
	var scoreSum float64
	for _, label := range order {
		q := latest[label]
		card.Questions = append(card.Questions, q)
		scoreSum += q.Score
	}
	card.QuestionsEvaluated = len(card.Questions)
	card.MeanNeatness = mean(neatnessSum, processed)
	card.MeanScore = mean(scoreSum, card.QuestionsEvaluated)

	if s.syllabus != nil && len(card.Questions) > 0 {
		card.Modules = s.breakdown(card.Questions, func(e syllabus.Entry) string { return e.Module })
		card.BloomLevels = s.breakdown(card.Questions, func(e syllabus.Entry) string { return e.Bloom })
	}
	return card
}

func (s *ReportService) breakdown(questions []models.QuestionResult, key func(syllabus.Entry) string) []models.Breakdown {
	var order []string
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, q := range questions {
		name := key(s.syllabus.Lookup(q.Label))
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		sums[name] += q.Score
		counts[name]++
	}

	out := make([]models.Breakdown, 0, len(order))
	for _, name := range order {
		out = append(out, models.Breakdown{
			Name:         name,
			Questions:    counts[name],
			AverageScore: mean(sums[name], counts[name]),
		})
	}
	return out
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*100) / 100
}
