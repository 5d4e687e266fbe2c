package vectormodel

import "math"

// CosineSimilarity returns the cosine similarity of a and b: their dot
// product divided by the product of their norms. Mismatched dimensions and
// zero-norm vectors yield 0 instead of failing.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
