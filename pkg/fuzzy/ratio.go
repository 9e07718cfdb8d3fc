// Package fuzzy provides normalized string similarity scores in [0, 100]
// built on the insertion/deletion (Indel) edit distance.
//
// Strings are compared rune by rune without any preprocessing; callers
// lower-case or trim as needed.
package fuzzy

import (
	"sort"
	"strings"
)

// Scorer compares two strings and returns a similarity in [0, 100].
type Scorer func(s1, s2 string) float64

// Ratio is the Indel normalized similarity: 100 * 2*LCS / (len1+len2).
// Two empty strings are identical.
func Ratio(s1, s2 string) float64 {
	return runeRatio([]rune(s1), []rune(s2))
}

func runeRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return normalized(total-2*lcsLength(a, b), total)
}

// normalized converts an Indel distance into a similarity percentage.
func normalized(dist, lenSum int) float64 {
	if lenSum == 0 {
		return 100
	}
	return 100 - 100*float64(dist)/float64(lenSum)
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// PartialRatio is the best Ratio of the shorter string against any
// same-length window of the longer one, including the partial windows that
// hang off either end.
func PartialRatio(s1, s2 string) float64 {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 || len(b) == 0 {
		if len(a) == 0 && len(b) == 0 {
			return 100
		}
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	best := partialAlignment(a, b)
	if best != 100 && len(a) == len(b) {
		best = max(best, partialAlignment(b, a))
	}
	return best
}

func partialAlignment(needle, haystack []rune) float64 {
	n, m := len(needle), len(haystack)
	chars := make(map[rune]struct{}, n)
	for _, r := range needle {
		chars[r] = struct{}{}
	}
	has := func(r rune) bool {
		_, ok := chars[r]
		return ok
	}

	var best float64
	consider := func(window []rune) bool {
		score := runeRatio(needle, window)
		if score > best {
			best = score
		}
		return best == 100
	}

	for i := 1; i < n; i++ {
		if has(haystack[i-1]) && consider(haystack[:i]) {
			return best
		}
	}
	for i := 0; i < m-n; i++ {
		if has(haystack[i+n-1]) && consider(haystack[i:i+n]) {
			return best
		}
	}
	for i := m - n; i < m; i++ {
		if has(haystack[i]) && consider(haystack[i:]) {
			return best
		}
	}
	return best
}

// TokenSortRatio compares the strings after sorting their whitespace
// separated tokens.
func TokenSortRatio(s1, s2 string) float64 {
	return Ratio(sortedJoin(strings.Fields(s1)), sortedJoin(strings.Fields(s2)))
}

// TokenSetRatio compares the shared tokens against each side's remainder so
// that extra words on one side do not dominate the score.
func TokenSetRatio(s1, s2 string) float64 {
	setA, setB := tokenSet(s1), tokenSet(s2)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var sect, diffAB, diffBA []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			sect = append(sect, tok)
		} else {
			diffAB = append(diffAB, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			diffBA = append(diffBA, tok)
		}
	}
	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	abJoined := []rune(sortedJoin(diffAB))
	baJoined := []rune(sortedJoin(diffBA))
	sectLen := len([]rune(sortedJoin(sect)))
	sep := 0
	if sectLen != 0 {
		sep = 1
	}
	sectABLen := sectLen + sep + len(abJoined)
	sectBALen := sectLen + sep + len(baJoined)

	dist := len(abJoined) + len(baJoined) - 2*lcsLength(abJoined, baJoined)
	result := normalized(dist, sectABLen+sectBALen)
	if sectLen == 0 {
		return result
	}

	sectAB := normalized(sep+len(abJoined), sectLen+sectABLen)
	sectBA := normalized(sep+len(baJoined), sectLen+sectBALen)
	return max(result, sectAB, sectBA)
}

// TokenRatio is the better of TokenSortRatio and TokenSetRatio.
func TokenRatio(s1, s2 string) float64 {
	return max(TokenSortRatio(s1, s2), TokenSetRatio(s1, s2))
}

// PartialTokenRatio is PartialRatio over sorted tokens. Any shared token
// makes it 100.
func PartialTokenRatio(s1, s2 string) float64 {
	tokensA, tokensB := strings.Fields(s1), strings.Fields(s2)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	setA, setB := tokenSet(s1), tokenSet(s2)
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			return 100
		}
	}

	result := PartialRatio(sortedJoin(tokensA), sortedJoin(tokensB))
	if len(tokensA) == len(setA) && len(tokensB) == len(setB) {
		return result
	}
	return max(result, PartialRatio(sortedJoin(keys(setA)), sortedJoin(keys(setB))))
}

const (
	unbaseScale = 0.95
	// Length ratio below which the whole strings are compared directly.
	directLengthRatio = 1.5
	// Length ratio from which partial matches are heavily discounted.
	partialLengthRatio = 8.0
)

// WRatio picks the most suitable of the other scorers based on how much
// the two string lengths differ. Empty input scores 0.
func WRatio(s1, s2 string) float64 {
	len1, len2 := len([]rune(s1)), len([]rune(s2))
	if len1 == 0 || len2 == 0 {
		return 0
	}

	lenRatio := float64(max(len1, len2)) / float64(min(len1, len2))
	end := Ratio(s1, s2)
	if lenRatio < directLengthRatio {
		return max(end, TokenRatio(s1, s2)*unbaseScale)
	}

	partialScale := 0.9
	if lenRatio >= partialLengthRatio {
		partialScale = 0.6
	}
	end = max(end, PartialRatio(s1, s2)*partialScale)
	return max(end, PartialTokenRatio(s1, s2)*unbaseScale*partialScale)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func sortedJoin(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}
