package resolve

import "github.com/mhenriquez/parlid/internal/normalize"

// initialMatchScore is the credit for a single-letter initial matching the
// first letter of a full token ("j" vs "juan"). High, but below an exact hit
// so a spelled-out match always outranks an initial expansion.
const initialMatchScore = 0.9

// tokenSimilarity scores two normalized name tokens in [0,1].
// Deterministic and monotone in edit distance.
func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if normalize.IsInitial(a) && !normalize.IsInitial(b) && b[0] == a[0] {
		return initialMatchScore
	}
	if normalize.IsInitial(b) && !normalize.IsInitial(a) && a[0] == b[0] {
		return initialMatchScore
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// setSimilarity scores two token sets: each token is credited with its best
// counterpart on the other side, summed in both directions and normalized by
// the total token count. 1.0 only for a token-for-token match.
func setSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var sum float64
	for _, ta := range a {
		sum += bestAgainst(ta, b)
	}
	for _, tb := range b {
		sum += bestAgainst(tb, a)
	}
	return sum / float64(len(a)+len(b))
}

func bestAgainst(tok string, against []string) float64 {
	var best float64
	for _, other := range against {
		if s := tokenSimilarity(tok, other); s > best {
			best = s
			if best == 1 {
				break
			}
		}
	}
	return best
}

// levenshtein computes the edit distance between two byte strings.
// Name tokens are ASCII after normalization, so byte-wise comparison is exact.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
