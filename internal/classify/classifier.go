package classify

import (
	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/internal/vectormodel"
)

// Classifier combines the word-vector model and the rule classifier.
// The model decides when it is available and confident; everything else
// falls back to the rules.
type Classifier struct {
	rules       *RuleClassifier
	model       *vectormodel.Model // may be nil
	useML       bool
	mlThreshold float64
	logger      *zap.Logger
}

// New creates a classifier. model may be nil when no vector model is
// loaded; logger may be nil.
func New(rules *RuleClassifier, model *vectormodel.Model, useML bool, mlThreshold float64, logger *zap.Logger) *Classifier {
	return &Classifier{
		rules:       rules,
		model:       model,
		useML:       useML,
		mlThreshold: mlThreshold,
		logger:      logger,
	}
}

// Classify returns the category decision for text. When ML is enabled and
// the model is ready, the vector prediction wins if it names a category
// with a non-negative similarity at or above the threshold. An absent
// prediction and an unconfident one both fall back to the rules.
func (c *Classifier) Classify(text string) models.ClassificationResult {
	if c.useML && c.model.Ready() {
		category, confidence := c.model.Predict(text)
		if category != "" && confidence >= 0 && confidence >= c.mlThreshold {
			result := models.ClassificationResult{Category: category, Confidence: confidence, Method: models.MethodML}
			c.logConfidence(result)
			return result
		}
	}
	category, confidence := c.rules.Score(text)
	result := models.ClassificationResult{Category: category, Confidence: confidence, Method: models.MethodRules}
	c.logConfidence(result)
	return result
}

// logConfidence reports the decision with a confidence band. The bands
// differ per method: cosine similarities live in [0, 1], rule scores are
// unbounded.
func (c *Classifier) logConfidence(r models.ClassificationResult) {
	if c.logger == nil {
		return
	}
	var band string
	if r.Method == models.MethodML {
		switch {
		case r.Confidence > 0.8:
			band = "high"
		case r.Confidence > 0.5:
			band = "ok"
		default:
			band = "low"
		}
	} else {
		switch {
		case r.Confidence > 5.0:
			band = "high"
		case r.Confidence > 2.0:
			band = "ok"
		default:
			band = "low"
		}
	}
	c.logger.Debug("classified",
		zap.String("category", r.Category),
		zap.Float64("confidence", r.Confidence),
		zap.String("method", string(r.Method)),
		zap.String("band", band),
	)
}
