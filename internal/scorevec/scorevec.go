// Package scorevec provides pure vector scoring routines: cosine
// similarity and maximal marginal relevance selection. No I/O.
package scorevec

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
// A zero-norm vector has similarity 0 to any vector, never NaN.
// Vectors of different lengths also score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MaximalMarginalRelevance greedily selects up to min(k, len(candidates))
// candidate indices balancing relevance to the query against diversity
// among the already-selected set:
//
//	lambda * cos(query, c) - (1-lambda) * max(cos(c, selected...))
//
// The first pick is the candidate most similar to the query. Exact score
// ties prefer the candidate less similar to the selected set, then the
// lower index. Returns nil for an empty candidate list.
func MaximalMarginalRelevance(
	query []float32, candidates [][]float32,
	k int, lambda float64,
) []int {
	n := len(candidates)
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}

	simToQuery := make([]float64, n)
	for i, c := range candidates {
		simToQuery[i] = CosineSimilarity(query, c)
	}

	first := 0
	for i := 1; i < n; i++ {
		if simToQuery[i] > simToQuery[first] {
			first = i
		}
	}

	selected := make([]int, 0, k)
	picked := make([]bool, n)
	// redundancy[i] is the max similarity of candidate i to the selected set.
	redundancy := make([]float64, n)

	pick := func(idx int) {
		picked[idx] = true
		selected = append(selected, idx)
		for i := range candidates {
			if picked[i] {
				continue
			}
			if s := CosineSimilarity(candidates[idx], candidates[i]); s > redundancy[i] {
				redundancy[i] = s
			}
		}
	}
	pick(first)

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		bestRedundancy := math.Inf(1)
		for i := 0; i < n; i++ {
			if picked[i] {
				continue
			}
			score := lambda*simToQuery[i] - (1-lambda)*redundancy[i]
			if score > bestScore || (score == bestScore && redundancy[i] < bestRedundancy) {
				bestIdx = i
				bestScore = score
				bestRedundancy = redundancy[i]
			}
		}
		if bestIdx < 0 {
			break
		}
		pick(bestIdx)
	}

	return selected
}
