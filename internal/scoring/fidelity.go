package scoring

import (
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// Fidelity describes how far a student answer is from the key text as a
// transcript: word and character error rates in [0, +inf), lower is closer.
type Fidelity struct {
	WER float64 `json:"word_error_rate"`
	CER float64 `json:"character_error_rate"`
}

// Measure compares normalized student text against normalized key text.
// An empty reference yields zero rates when the candidate is also empty and
// 1 otherwise.
func Measure(reference, candidate string) Fidelity {
	refWords := normalizeText(reference)
	candWords := normalizeText(candidate)
	return Fidelity{
		WER: wordErrorRate(refWords, candWords),
		CER: charErrorRate(strings.Join(refWords, " "), strings.Join(candWords, " ")),
	}
}

func charErrorRate(ref, cand string) float64 {
	n := len([]rune(ref))
	if n == 0 {
		return emptyReferenceRate(cand != "")
	}
	return round2(float64(levenshtein.Distance(ref, cand)) / float64(n))
}

// wordErrorRate is the word-level edit distance over the reference length.
func wordErrorRate(ref, cand []string) float64 {
	if len(ref) == 0 {
		return emptyReferenceRate(len(cand) > 0)
	}
	rate, _ := wer.WER(ref, cand)
	return round2(rate)
}

func emptyReferenceRate(hasCandidate bool) float64 {
	if hasCandidate {
		return 1
	}
	return 0
}
