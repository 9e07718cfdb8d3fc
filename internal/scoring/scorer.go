package scoring

import (
	"fmt"
	"math"

	"go-script-evaluator/internal/grouping"
	"go-script-evaluator/pkg/fuzzy"
)

// Grade statuses.
const (
	StatusGraded     = "graded"
	StatusNoKeyMatch = "No matching question in Answer Key"
)

// MatchEvidence records a rubric term found in the student's answer.
type MatchEvidence struct {
	Term       string `json:"term"`
	Matched    string `json:"matched"`
	Similarity int    `json:"similarity"`
}

func (e MatchEvidence) String() string {
	return fmt.Sprintf("%s (%d%%)", e.Term, e.Similarity)
}

// GradeResult is the outcome for one question label.
type GradeResult struct {
	Label    string          `json:"label"`
	Score    float64         `json:"score"`
	Evidence []MatchEvidence `json:"evidence"`
	Status   string          `json:"status"`
	Fidelity *Fidelity       `json:"fidelity,omitempty"`
}

// Scorer grades free-text answers against keyword rubrics.
type Scorer interface {
	BuildRubric(keyText string) Rubric
	Score(studentText string, rubric Rubric) (float64, []MatchEvidence)
	GradePaper(student, key *grouping.QuestionBlocks) []GradeResult
}

type scorer struct {
	opts  Options
	match fuzzy.Scorer
}

// NewScorer returns a Scorer using weighted-ratio fuzzy matching.
func NewScorer(opts Options) Scorer {
	return &scorer{opts: opts, match: fuzzy.WRatio}
}

func (s *scorer) BuildRubric(keyText string) Rubric {
	return BuildRubric(keyText, s.opts)
}

// Score awards each rubric term independently when its best match among the
// student's tokens reaches the acceptance score. The result is a percentage
// of the rubric's total weight rounded to two decimals. Evidence follows
// rubric order.
func (s *scorer) Score(studentText string, rubric Rubric) (float64, []MatchEvidence) {
	total := rubric.TotalWeight()
	tokens := normalizeText(studentText)
	if total == 0 || len(tokens) == 0 {
		return 0, []MatchEvidence{}
	}

	var earned float64
	evidence := []MatchEvidence{}
	for _, term := range rubric {
		best, ok := fuzzy.ExtractOne(term.Term, tokens, s.match)
		if !ok || best.Score < s.opts.AcceptanceScore {
			continue
		}
		earned += term.Weight
		evidence = append(evidence, MatchEvidence{
			Term:       term.Term,
			Matched:    best.Choice,
			Similarity: int(math.Round(best.Score)),
		})
	}
	return round2(100 * earned / total), evidence
}

// GradePaper scores every student label against the key answer with the
// same label. Labels missing from the key get a zero score and
// StatusNoKeyMatch; they never abort the paper.
func (s *scorer) GradePaper(student, key *grouping.QuestionBlocks) []GradeResult {
	results := make([]GradeResult, 0, student.Len())
	for _, label := range student.Labels() {
		answer, _ := student.Get(label)
		keyText, ok := key.Get(label)
		if !ok {
			results = append(results, GradeResult{
				Label:    label,
				Score:    0,
				Evidence: []MatchEvidence{},
				Status:   StatusNoKeyMatch,
			})
			continue
		}

		score, evidence := s.Score(answer, s.BuildRubric(keyText))
		fidelity := Measure(keyText, answer)
		results = append(results, GradeResult{
			Label:    label,
			Score:    score,
			Evidence: evidence,
			Status:   StatusGraded,
			Fidelity: &fidelity,
		})
	}
	return results
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
