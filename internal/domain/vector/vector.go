// Package vector provides the similarity math used by semantic ranking.
package vector

import "math"

// Cosine returns the cosine similarity dot(a,b)/(|a|*|b|) between two vectors.
// Returns 0 when the vectors differ in length or when either norm is zero;
// degenerate input is never an error here.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
