package models

// Method identifies which classifier produced a result.
type Method string

const (
	// MethodRules marks a result produced by the weighted-keyword rules.
	MethodRules Method = "rules"
	// MethodML marks a result produced by the word-vector model.
	MethodML Method = "ml"
)

// ClassificationResult is the category decision for one file's text.
// The two methods use different confidence scales: rule confidence is an
// unbounded non-negative score, ML confidence is a cosine similarity in
// [-1, 1] that is only usable when non-negative.
type ClassificationResult struct {
	Category   string
	Confidence float64
	Method     Method
}
