package textutil

// Similarity returns a value in [0,1] describing how close two strings are
// after normalization: 1.0 for identical, 0.0 for completely different.
// One string being a substantial suffix of the other (possessive prefixes
// like "Will Vinton's Claymation Christmas" vs "Claymation Christmas")
// scores high without a full edit-distance pass.
func Similarity(a, b string) float64 {
	a = Normalize(a)
	b = Normalize(b)

	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	if score := suffixContainmentScore(a, b); score > 0 {
		return score
	}

	distance := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// suffixContainmentScore returns a high similarity score if one string is a
// word-boundary suffix of the other covering at least 60% of it, else 0.
func suffixContainmentScore(a, b string) float64 {
	longer, shorter := a, b
	if len(a) < len(b) {
		longer, shorter = b, a
	}

	prefixLen := len(longer) - len(shorter)
	if longer[prefixLen:] != shorter {
		return 0
	}
	if prefixLen != 0 && longer[prefixLen-1] != ' ' {
		return 0
	}

	ratio := float64(len(shorter)) / float64(len(longer))
	if ratio < 0.6 {
		return 0
	}
	return 0.90 + ratio*0.10
}

func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
