package rag

import "math"

// CosineSimilarity calculates the cosine similarity between two vectors:
// dot(a,b) / (||a|| * ||b||). Returns a value in [-1, 1]. The norms are
// always computed; the embedding model is not assumed to emit
// unit-normalised vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
