package vectorstore

import (
	"math"
	"sort"

	"docqa/internal/domain"
)

// MatchesFilter reports whether every filter entry is present in metadata.
// An empty filter matches everything.
func MatchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if got, ok := metadata[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// CosineDistance returns 1 - cosine similarity, in [0, 2].
// Vectors of different length or zero norm are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// Rank scores candidates against query and keeps the k closest, nearest first.
// Ties keep candidate order.
func Rank(query []float32, candidates []domain.Record, k int) []domain.Match {
	if k <= 0 {
		return nil
	}
	matches := make([]domain.Match, len(candidates))
	for i, c := range candidates {
		matches[i] = domain.Match{
			ID:       c.ID,
			Document: c.Document,
			Distance: CosineDistance(query, c.Vector),
			Metadata: c.Metadata,
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}
