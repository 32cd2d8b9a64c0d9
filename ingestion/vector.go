package ingestion

import "math"

// NormalizeVector returns a unit-length copy of v. The index mapping declares
// cosine similarity, so scaling to unit length keeps scores comparable across
// embedding models that do not normalize their own output. A zero vector has
// no direction and comes back as all zeros.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	result := make([]float32, len(v))
	if sumSquares == 0 {
		return result
	}

	inv := 1.0 / math.Sqrt(sumSquares)
	for i, val := range v {
		result[i] = float32(float64(val) * inv)
	}
	return result
}
