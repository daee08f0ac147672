package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scaled", []float32{2, 0}, []float32{5, 0}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScorePrefersSimilarity(t *testing.T) {
	// A much better similarity beats a view-count edge.
	assert.Greater(t, score(0.9, 1000), score(0.5, 100_000_000))
}

func TestScoreViewsBreakNearTies(t *testing.T) {
	assert.Greater(t, score(0.8, 10_000_000), score(0.8, 100))
}

func TestScoreNegativeViews(t *testing.T) {
	assert.InDelta(t, 0.5, score(0.5, -10), 1e-9)
}

func TestCandidateDescription(t *testing.T) {
	desc := candidateDescription(Candidate{Title: "Never Gonna Give You Up", Channel: "Rick Astley"})
	assert.Contains(t, desc, "Never Gonna Give You Up")
	assert.Contains(t, desc, "Rick Astley")
}
