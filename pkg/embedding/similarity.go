package embedding

import (
	"fmt"
	"math"

	"ai-qa-rag-be/pkg/apperror"
)

// CosineSimilarity returns dot(a, b) / (|a|·|b|).
// Empty, mismatched-length and zero-magnitude inputs are rejected.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("%w: cosine similarity of empty vector", apperror.ErrValidation)
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", apperror.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("%w: cosine similarity of zero vector", apperror.ErrValidation)
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// clamp float drift so identical vectors compare as exactly 1
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// ScoreFromCosineDistance maps a pgvector cosine distance in [0, 2] to a score in [0, 1].
func ScoreFromCosineDistance(distance float64) float64 {
	score := 1 - distance/2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Normalize scales vec to unit length. Zero vectors are returned unchanged.
func Normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
