package scoring

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WeightedTerm is one keyword a student answer is expected to contain.
type WeightedTerm struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Rubric is the de-duplicated keyword set of a key answer, in first-seen order.
type Rubric []WeightedTerm

// TotalWeight is the maximum number of points the rubric can award.
func (r Rubric) TotalWeight() float64 {
	var total float64
	for _, t := range r {
		total += t.Weight
	}
	return total
}

// Terms returns the bare keywords.
func (r Rubric) Terms() []string {
	out := make([]string, len(r))
	for i, t := range r {
		out[i] = t.Term
	}
	return out
}

// normalizeText lower-cases text and splits it on whitespace.
// A Caser is stateful, so each call gets its own.
func normalizeText(text string) []string {
	return strings.Fields(cases.Lower(language.Und).String(text))
}

// BuildRubric extracts weighted keywords from a key answer: lower-cased,
// trailing '.' and ',' trimmed, longer than MinTermLength, de-duplicated.
// Every term carries the same weight; there is no stopword list beyond the
// length cutoff.
func BuildRubric(keyText string, opts Options) Rubric {
	seen := make(map[string]struct{})
	var rubric Rubric
	for _, tok := range normalizeText(keyText) {
		term := strings.TrimRight(tok, ".,")
		if utf8.RuneCountInString(term) <= opts.MinTermLength {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		rubric = append(rubric, WeightedTerm{Term: term, Weight: opts.TermWeight})
	}
	return rubric
}
