package classify

import (
	"testing"

	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/internal/vectormodel"
)

func testModel(t *testing.T) *vectormodel.Model {
	t.Helper()
	space, err := vectormodel.NewTrainedSpace(2, map[string][]float32{
		"project": {1, 0},
		"budget":  {0, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	refs := []vectormodel.Reference{
		{Category: "work", Vector: []float32{1, 0}},
		{Category: "finance", Vector: []float32{0, 1}},
	}
	return vectormodel.New(space, refs, nil)
}

func TestClassifier_usesModelWhenConfident(t *testing.T) {
	rules := NewRuleClassifier(testCategories(), 1.0)
	c := New(rules, testModel(t), true, 0.7, nil)

	got := c.Classify("project")
	if got.Method != models.MethodML {
		t.Fatalf("method = %q, want ml", got.Method)
	}
	if got.Category != "work" {
		t.Errorf("category = %q, want work", got.Category)
	}
	if got.Confidence < 0.99 {
		t.Errorf("confidence = %v, want ~1", got.Confidence)
	}
}

func TestClassifier_fallsBackBelowThreshold(t *testing.T) {
	rules := NewRuleClassifier(testCategories(), 1.0)
	// Threshold above any possible cosine similarity forces the fallback.
	c := New(rules, testModel(t), true, 1.5, nil)

	got := c.Classify("project plan")
	if got.Method != models.MethodRules {
		t.Fatalf("method = %q, want rules", got.Method)
	}
	if got.Category != "work" {
		t.Errorf("category = %q, want work", got.Category)
	}
}

func TestClassifier_fallsBackWhenModelCannotResolve(t *testing.T) {
	rules := NewRuleClassifier(testCategories(), 1.0)
	c := New(rules, testModel(t), true, 0.7, nil)

	got := c.Classify("meeting invoice invoice")
	if got.Method != models.MethodRules {
		t.Fatalf("method = %q, want rules", got.Method)
	}
	if got.Category != "finance" {
		t.Errorf("category = %q, want finance", got.Category)
	}
}

func TestClassifier_nilModel(t *testing.T) {
	rules := NewRuleClassifier(testCategories(), 1.0)
	c := New(rules, nil, true, 0.7, nil)

	got := c.Classify("project budget")
	if got.Method != models.MethodRules {
		t.Errorf("nil model must fall back to rules, got %q", got.Method)
	}
}

func TestClassifier_mlDisabled(t *testing.T) {
	rules := NewRuleClassifier(testCategories(), 1.0)
	c := New(rules, testModel(t), false, 0.7, nil)

	got := c.Classify("project")
	if got.Method != models.MethodRules {
		t.Errorf("disabled model must not classify, got %q", got.Method)
	}
}
