package scorevec

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

func TestCosineSimilarity_Known(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"scaled", []float32{2, 0}, []float32{5, 0}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	got := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
	if got != 0 {
		t.Errorf("zero vector similarity = %f, want 0", got)
	}
	if math.IsNaN(got) {
		t.Error("zero vector similarity is NaN")
	}
	if s := CosineSimilarity([]float32{0, 0}, []float32{0, 0}); s != 0 {
		t.Errorf("two zero vectors similarity = %f, want 0", s)
	}
}

func TestCosineSimilarity_LengthMismatch(t *testing.T) {
	if s := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); s != 0 {
		t.Errorf("length mismatch similarity = %f, want 0", s)
	}
}

func TestMMR_Empty(t *testing.T) {
	if got := MaximalMarginalRelevance([]float32{1, 0}, nil, 4, 0.5); len(got) != 0 {
		t.Errorf("MMR on empty candidates = %v, want empty", got)
	}
	if got := MaximalMarginalRelevance([]float32{1, 0}, [][]float32{{1, 0}}, 0, 0.5); len(got) != 0 {
		t.Errorf("MMR with k=0 = %v, want empty", got)
	}
}

func TestMMR_KExceedsN(t *testing.T) {
	candidates := [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}}
	got := MaximalMarginalRelevance([]float32{1, 0}, candidates, 10, 0.5)
	if len(got) != len(candidates) {
		t.Fatalf("selected %d indices, want %d", len(got), len(candidates))
	}
	seen := make(map[int]bool)
	for _, idx := range got {
		if idx < 0 || idx >= len(candidates) {
			t.Fatalf("index %d out of range", idx)
		}
		if seen[idx] {
			t.Fatalf("index %d selected twice", idx)
		}
		seen[idx] = true
	}
	// Deterministic: running again yields the same order.
	again := MaximalMarginalRelevance([]float32{1, 0}, candidates, 10, 0.5)
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("non-deterministic selection: %v vs %v", got, again)
		}
	}
}

func TestMMR_LambdaOneIsTopK(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		dim := 8
		n := 15
		query := randomVector(rng, dim)
		candidates := make([][]float32, n)
		for i := range candidates {
			candidates[i] = randomVector(rng, dim)
		}

		k := 5
		got := MaximalMarginalRelevance(query, candidates, k, 1.0)

		// Plain top-k by cosine similarity, stable by index.
		idxs := make([]int, n)
		for i := range idxs {
			idxs[i] = i
		}
		sort.SliceStable(idxs, func(a, b int) bool {
			return CosineSimilarity(query, candidates[idxs[a]]) >
				CosineSimilarity(query, candidates[idxs[b]])
		})
		want := idxs[:k]

		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("trial %d: lambda=1 order %v, want top-k %v", trial, got, want)
			}
		}
	}
}

func TestMMR_DiversityPreferred(t *testing.T) {
	// Index 0 is the best match; index 1 is nearly identical to it,
	// index 2 is orthogonal. With lambda=0.5 the second pick must be
	// the diverse candidate.
	candidates := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}}
	got := MaximalMarginalRelevance([]float32{1, 0}, candidates, 2, 0.5)
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("selection = %v, want [0 2]", got)
	}
}

func TestMMR_LambdaZeroMaximizesDiversity(t *testing.T) {
	// Three near-duplicates of the query plus one orthogonal vector:
	// with lambda=0 the orthogonal one must be the second pick.
	candidates := [][]float32{{1, 0}, {0.99, 0.01}, {0.98, 0.02}, {0, 1}}
	got := MaximalMarginalRelevance([]float32{1, 0}, candidates, 2, 0)
	if len(got) != 2 || got[0] != 0 || got[1] != 3 {
		t.Errorf("selection = %v, want [0 3]", got)
	}
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}
