package orchestrator

import "strings"

// trigramSet builds the set of 3-word shingles in s, lowercased and
// whitespace-normalized. Short texts (fewer than 3 words) yield a
// single shingle of whatever words are present so they still compare.
func trigramSet(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool)
	if len(fields) == 0 {
		return set
	}
	if len(fields) < 3 {
		set[strings.Join(fields, " ")] = true
		return set
	}
	for i := 0; i+3 <= len(fields); i++ {
		set[strings.Join(fields[i:i+3], " ")] = true
	}
	return set
}

// jaccardSimilarity returns |a∩b| / |a∪b| over two trigram sets, 0 when
// both are empty.
func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// redundancyThreshold is the spec's trigram-Jaccard ceiling: above this,
// a role's output is considered redundant with an upstream role's text.
const redundancyThreshold = 0.55

// isRedundant reports whether text's trigram-Jaccard similarity against
// any of upstreamTexts exceeds redundancyThreshold.
func isRedundant(text string, upstreamTexts ...string) bool {
	target := trigramSet(text)
	for _, u := range upstreamTexts {
		if jaccardSimilarity(target, trigramSet(u)) > redundancyThreshold {
			return true
		}
	}
	return false
}
