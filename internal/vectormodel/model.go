package vectormodel

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Reference is a category's semantic centroid: the mean of the text
// vectors of its training texts.
type Reference struct {
	Category string
	Vector   []float32
}

// Model holds an active vector space and the per-category reference
// vectors. Both are read-only for the duration of a run; Train replaces
// them wholesale before a run starts.
type Model struct {
	space      Space
	references []Reference // iteration order is the tie-break order
	logger     *zap.Logger
	dimWarn    sync.Once
}

// New creates a model from a space and reference vectors. Reference
// vectors whose length does not match the space dimensionality are dropped
// here, at load time, never at lookup time. space may be nil (model not
// ready); logger may be nil.
func New(space Space, refs []Reference, logger *zap.Logger) *Model {
	m := &Model{space: space, logger: logger}
	m.setReferences(refs)
	return m
}

// Ready reports whether vector prediction is possible: a space is loaded
// and at least one compatible reference vector survived validation.
func (m *Model) Ready() bool {
	return m != nil && m.space != nil && len(m.references) > 0
}

// References returns the active reference vectors.
func (m *Model) References() []Reference {
	if m == nil {
		return nil
	}
	return m.references
}

// Space returns the active vector space, or nil.
func (m *Model) Space() Space {
	if m == nil {
		return nil
	}
	return m.space
}

// setReferences keeps only reference vectors compatible with the space
// dimensionality, logging each dropped one.
func (m *Model) setReferences(refs []Reference) {
	if m.space == nil {
		m.references = nil
		return
	}
	dims := m.space.Dimensions()
	kept := make([]Reference, 0, len(refs))
	for _, ref := range refs {
		if len(ref.Vector) != dims {
			if m.logger != nil {
				m.logger.Warn("dropping incompatible reference vector",
					zap.String("category", ref.Category),
					zap.Int("got", len(ref.Vector)),
					zap.Int("want", dims))
			}
			continue
		}
		kept = append(kept, ref)
	}
	if len(kept) == 0 && len(refs) > 0 && m.logger != nil {
		m.logger.Error("no reference vector matches the model dimensionality; vector classification disabled until retrained")
	}
	m.references = kept
}

// TextVector converts text to the component-wise mean of its resolved
// token vectors. Returns false when no token resolved to a vocabulary
// entry; callers treat that as "cannot classify by vector model".
func (m *Model) TextVector(text string) ([]float32, bool) {
	if m == nil || m.space == nil || text == "" {
		return nil, false
	}
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, false
	}
	dims := m.space.Dimensions()
	sum := make([]float64, dims)
	resolved := 0
	for _, token := range tokens {
		vec, ok := lookupToken(m.space, token)
		if !ok {
			continue
		}
		for i, v := range vec {
			sum[i] += float64(v)
		}
		resolved++
	}
	if resolved == 0 {
		return nil, false
	}
	out := make([]float32, dims)
	for i := range sum {
		out[i] = float32(sum[i] / float64(resolved))
	}
	return out, true
}

// Predict returns the nearest category by cosine similarity against every
// reference vector, with the similarity value. Ties go to the earlier
// reference. Returns ("", 0) when no text vector can be built.
func (m *Model) Predict(text string) (string, float64) {
	if !m.Ready() {
		return "", 0
	}
	vec, ok := m.TextVector(text)
	if !ok {
		return "", 0
	}
	best := ""
	bestSim := 0.0
	found := false
	for _, ref := range m.references {
		if len(ref.Vector) != len(vec) {
			// References are validated at load; log once, not per comparison.
			m.dimWarn.Do(func() {
				if m.logger != nil {
					m.logger.Warn("vector dimensionality mismatch during prediction",
						zap.Int("text", len(vec)), zap.Int("reference", len(ref.Vector)))
				}
			})
		}
		sim := CosineSimilarity(vec, ref.Vector)
		if !found || sim > bestSim {
			found = true
			best = ref.Category
			bestSim = sim
		}
	}
	return best, bestSim
}

// Train rebuilds the vector space from the per-category training texts and
// recomputes every reference vector. Categories are processed in sorted
// name order so the reference iteration order is stable across runs.
func (m *Model) Train(training map[string][]string, opts TrainingOptions) error {
	if m == nil {
		return errors.New("nil model")
	}
	names := make([]string, 0, len(training))
	for name := range training {
		names = append(names, name)
	}
	sort.Strings(names)

	var sentences [][]string
	for _, name := range names {
		for _, text := range training[name] {
			if tokens := Tokenize(text); len(tokens) > 0 {
				sentences = append(sentences, tokens)
			}
		}
	}
	if len(sentences) == 0 {
		return errors.New("no usable training texts")
	}
	space, err := TrainSpace(sentences, opts)
	if err != nil {
		return err
	}
	m.space = space

	refs := make([]Reference, 0, len(names))
	for _, name := range names {
		vec, ok := m.meanTextVector(training[name])
		if !ok {
			if m.logger != nil {
				m.logger.Warn("no reference vector for category, no text resolved", zap.String("category", name))
			}
			continue
		}
		refs = append(refs, Reference{Category: name, Vector: vec})
	}
	if len(refs) == 0 {
		return errors.New("no category produced a reference vector")
	}
	m.setReferences(refs)
	return nil
}

// meanTextVector averages the text vectors of texts; false when none of
// the texts produced a vector.
func (m *Model) meanTextVector(texts []string) ([]float32, bool) {
	dims := m.space.Dimensions()
	sum := make([]float64, dims)
	n := 0
	for _, text := range texts {
		vec, ok := m.TextVector(text)
		if !ok {
			continue
		}
		for i, v := range vec {
			sum[i] += float64(v)
		}
		n++
	}
	if n == 0 {
		return nil, false
	}
	out := make([]float32, dims)
	for i := range sum {
		out[i] = float32(sum[i] / float64(n))
	}
	return out, true
}
