package fuzzy

// Match is the best scoring choice returned by ExtractOne.
type Match struct {
	Choice string
	Score  float64
	Index  int
}

// ExtractOne returns the choice scoring highest against query. Ties keep the
// earliest choice. ok is false when there are no choices.
func ExtractOne(query string, choices []string, scorer Scorer) (best Match, ok bool) {
	if scorer == nil {
		scorer = WRatio
	}
	for i, choice := range choices {
		score := scorer(query, choice)
		if !ok || score > best.Score {
			best = Match{Choice: choice, Score: score, Index: i}
			ok = true
		}
		if score == 100 {
			break
		}
	}
	return best, ok
}
