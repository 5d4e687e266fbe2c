// Package classify decides a file's category from its extracted text.
package classify

import (
	"strings"

	"github.com/hyperjump/bunrui/internal/models"
)

// repetitionBonus is added per occurrence on top of the full weighted term
// whenever a keyword occurs more than once. The base term is deliberately
// not reduced; changing this formula changes classification outcomes.
const repetitionBonus = 0.2

// RuleClassifier scores text against each category's weighted keywords.
type RuleClassifier struct {
	categories []models.Category
	minScore   float64
}

// NewRuleClassifier creates a rule classifier over the given categories.
// Categories are evaluated in slice order; on equal scores the earlier
// category wins.
func NewRuleClassifier(categories []models.Category, minScore float64) *RuleClassifier {
	return &RuleClassifier{categories: categories, minScore: minScore}
}

// Score returns the best eligible category and its score. A category is
// eligible when its total weighted score reaches the minimum confidence.
// Empty text, and text matching no eligible category, yields the fallback
// category with score 0.
func (r *RuleClassifier) Score(text string) (string, float64) {
	if text == "" {
		return models.FallbackCategory, 0
	}
	lower := strings.ToLower(text)

	best := models.FallbackCategory
	bestScore := 0.0
	found := false
	for _, cat := range r.categories {
		if cat.Name == models.FallbackCategory {
			continue
		}
		score := r.scoreCategory(lower, cat)
		if score < r.minScore {
			continue
		}
		if !found || score > bestScore {
			found = true
			best = cat.Name
			bestScore = score
		}
	}
	if !found {
		return models.FallbackCategory, 0
	}
	return best, bestScore
}

func (r *RuleClassifier) scoreCategory(lowerText string, cat models.Category) float64 {
	var score float64
	for _, kw := range cat.Keywords {
		if kw.Keyword == "" {
			continue
		}
		count := strings.Count(lowerText, strings.ToLower(kw.Keyword))
		if count == 0 {
			continue
		}
		score += float64(count) * kw.Weight
		if count > 1 {
			score += float64(count) * repetitionBonus
		}
	}
	return score
}
