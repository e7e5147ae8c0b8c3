package usecase

import "strings"

// Similarity blend weights and boosts
const (
	termOverlapWeight    = 0.6
	characterWeight      = 0.4
	termContainmentBoost = 1.1  // shorter term set fully inside the longer one
	textContainmentBoost = 1.15 // one normalized text contains the other, e.g. "... [Amazon]"
)

// CalculateSimilarity scores two descriptions in [0,1]: 60% key-term overlap
// and 40% character-level similarity of the normalized texts.
func (n *Normalizer) CalculateSimilarity(a, b string) float64 {
	normA := n.Normalize(a)
	normB := n.Normalize(b)
	return similarity(normA, n.keyTerms(normA), normB, n.keyTerms(normB))
}

// similarity works on already normalized texts and their key terms
func similarity(normA string, termsA []string, normB string, termsB []string) float64 {
	if normA == "" || normB == "" {
		return 0
	}
	if normA == normB {
		return 1
	}

	termScore := termOverlap(termsA, termsB)

	charScore := similarTextPercent(normA, normB)
	if containsEither(normA, normB) {
		charScore *= textContainmentBoost
	}
	charScore = clamp01(charScore)

	return clamp01(termOverlapWeight*termScore + characterWeight*charScore)
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// termOverlap is Jaccard over term sets, boosted when the smaller set is fully
// contained in the larger one
func termOverlap(termsA, termsB []string) float64 {
	if len(termsA) == 0 || len(termsB) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(termsA))
	for _, t := range termsA {
		setA[t] = true
	}
	setB := make(map[string]bool, len(termsB))
	for _, t := range termsB {
		setB[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	jaccard := float64(intersection) / float64(union)

	if intersection == min(len(setA), len(setB)) {
		return clamp01(jaccard * termContainmentBoost)
	}
	return jaccard
}

// similarTextPercent returns 2*common/(len(a)+len(b)) where common is the
// recursive longest-common-substring character count
func similarTextPercent(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return 2 * float64(similarText(ra, rb)) / float64(total)
}

// similarText counts characters shared by a and b: the longest common
// substring plus, recursively, what is shared on its left and right
func similarText(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	best, posA, posB := 0, 0, 0
	for i := range a {
		for j := range b {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > best {
				best, posA, posB = k, i, j
			}
		}
	}
	if best == 0 {
		return 0
	}

	return best +
		similarText(a[:posA], b[:posB]) +
		similarText(a[posA+best:], b[posB+best:])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
