// Package vectormodel implements the word-vector classifier: a vocabulary
// of word vectors plus per-category reference vectors, with cosine
// similarity nearest-category prediction.
package vectormodel

import (
	"fmt"
	"sort"
)

// Space exposes word-vector lookup for a loaded vector space. A space is
// immutable once built.
type Space interface {
	// VectorFor returns the vector for an exact vocabulary entry.
	VectorFor(token string) ([]float32, bool)
	// Dimensions returns the vector length of every entry.
	Dimensions() int
	// Pretrained reports whether the vocabulary carries part-of-speech
	// tagged entries, which changes lookup (not the math).
	Pretrained() bool
}

// vocabulary is the shared storage behind both space kinds.
type vocabulary struct {
	dims    int
	vectors map[string][]float32
}

func newVocabulary(dims int, vectors map[string][]float32) (vocabulary, error) {
	if dims <= 0 {
		return vocabulary{}, fmt.Errorf("dimensions must be positive")
	}
	for token, vec := range vectors {
		if len(vec) != dims {
			return vocabulary{}, fmt.Errorf("token %q has %d dimensions, want %d", token, len(vec), dims)
		}
	}
	return vocabulary{dims: dims, vectors: vectors}, nil
}

func (v vocabulary) vectorFor(token string) ([]float32, bool) {
	vec, ok := v.vectors[token]
	return vec, ok
}

func (v vocabulary) tokens() []string {
	out := make([]string, 0, len(v.vectors))
	for token := range v.vectors {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// TrainedSpace is a vector space produced by local training.
type TrainedSpace struct {
	vocab vocabulary
}

// NewTrainedSpace builds a trained space from token vectors. Every vector
// must have length dims.
func NewTrainedSpace(dims int, vectors map[string][]float32) (*TrainedSpace, error) {
	vocab, err := newVocabulary(dims, vectors)
	if err != nil {
		return nil, err
	}
	return &TrainedSpace{vocab: vocab}, nil
}

// VectorFor returns the vector for an exact vocabulary entry.
func (s *TrainedSpace) VectorFor(token string) ([]float32, bool) { return s.vocab.vectorFor(token) }

// Dimensions returns the vector length.
func (s *TrainedSpace) Dimensions() int { return s.vocab.dims }

// Pretrained always reports false for a locally trained space.
func (s *TrainedSpace) Pretrained() bool { return false }

// Tokens returns the vocabulary sorted, for persistence.
func (s *TrainedSpace) Tokens() []string { return s.vocab.tokens() }

// Size returns the vocabulary size.
func (s *TrainedSpace) Size() int { return len(s.vocab.vectors) }

// PretrainedSpace is a fixed vocabulary loaded from disk. Entries may carry
// part-of-speech tag suffixes (e.g. "budget_NOUN"), so lookup tries tagged
// variants after the plain token.
type PretrainedSpace struct {
	vocab vocabulary
}

// NewPretrainedSpace builds a pretrained space from token vectors.
func NewPretrainedSpace(dims int, vectors map[string][]float32) (*PretrainedSpace, error) {
	vocab, err := newVocabulary(dims, vectors)
	if err != nil {
		return nil, err
	}
	return &PretrainedSpace{vocab: vocab}, nil
}

// VectorFor returns the vector for an exact vocabulary entry.
func (s *PretrainedSpace) VectorFor(token string) ([]float32, bool) { return s.vocab.vectorFor(token) }

// Dimensions returns the vector length.
func (s *PretrainedSpace) Dimensions() int { return s.vocab.dims }

// Pretrained always reports true.
func (s *PretrainedSpace) Pretrained() bool { return true }

// Tokens returns the vocabulary sorted, for persistence.
func (s *PretrainedSpace) Tokens() []string { return s.vocab.tokens() }
