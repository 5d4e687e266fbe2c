package vectormodel

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// TrainingOptions control local skip-gram training.
type TrainingOptions struct {
	VectorSize   int
	Window       int
	Epochs       int
	MinCount     int     // minimum token frequency to enter the vocabulary
	Negative     int     // negative samples per positive pair
	LearningRate float64
	Seed         int64
}

// DefaultTrainingOptions returns the training defaults.
func DefaultTrainingOptions() TrainingOptions {
	return TrainingOptions{
		VectorSize:   100,
		Window:       5,
		Epochs:       15,
		MinCount:     1,
		Negative:     5,
		LearningRate: 0.025,
		Seed:         1,
	}
}

func (o *TrainingOptions) applyDefaults() {
	def := DefaultTrainingOptions()
	if o.VectorSize <= 0 {
		o.VectorSize = def.VectorSize
	}
	if o.Window <= 0 {
		o.Window = def.Window
	}
	if o.Epochs <= 0 {
		o.Epochs = def.Epochs
	}
	if o.MinCount <= 0 {
		o.MinCount = def.MinCount
	}
	if o.Negative <= 0 {
		o.Negative = def.Negative
	}
	if o.LearningRate <= 0 {
		o.LearningRate = def.LearningRate
	}
	if o.Seed == 0 {
		o.Seed = def.Seed
	}
}

// TrainSpace trains a skip-gram word-vector space with negative sampling
// over tokenized sentences. The corpora this sorter trains on are small,
// so a single-threaded pass per epoch is enough. Returns an error when no
// token clears the minimum count.
func TrainSpace(sentences [][]string, opts TrainingOptions) (*TrainedSpace, error) {
	opts.applyDefaults()

	counts := make(map[string]int)
	for _, sentence := range sentences {
		for _, token := range sentence {
			counts[token]++
		}
	}
	vocab := make([]string, 0, len(counts))
	for token, n := range counts {
		if n >= opts.MinCount {
			vocab = append(vocab, token)
		}
	}
	if len(vocab) == 0 {
		return nil, errors.New("empty vocabulary after frequency filtering")
	}
	sort.Strings(vocab)
	index := make(map[string]int, len(vocab))
	for i, token := range vocab {
		index[token] = i
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	dims := opts.VectorSize
	input := make([][]float64, len(vocab))  // trained word vectors
	output := make([][]float64, len(vocab)) // context weights
	for i := range vocab {
		input[i] = make([]float64, dims)
		output[i] = make([]float64, dims)
		for d := 0; d < dims; d++ {
			input[i][d] = (rng.Float64() - 0.5) / float64(dims)
		}
	}
	sampler := newUnigramSampler(vocab, counts)

	grad := make([]float64, dims)
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for _, sentence := range sentences {
			ids := make([]int, 0, len(sentence))
			for _, token := range sentence {
				if id, ok := index[token]; ok {
					ids = append(ids, id)
				}
			}
			for pos, center := range ids {
				lo := pos - opts.Window
				if lo < 0 {
					lo = 0
				}
				hi := pos + opts.Window
				if hi >= len(ids) {
					hi = len(ids) - 1
				}
				for ctx := lo; ctx <= hi; ctx++ {
					if ctx == pos {
						continue
					}
					trainPair(input[center], output, ids[ctx], opts, sampler, rng, grad)
				}
			}
		}
	}

	vectors := make(map[string][]float32, len(vocab))
	for i, token := range vocab {
		vec := make([]float32, dims)
		for d := 0; d < dims; d++ {
			vec[d] = float32(input[i][d])
		}
		vectors[token] = vec
	}
	return NewTrainedSpace(dims, vectors)
}

// trainPair performs one negative-sampling update: the true context with
// label 1 plus opts.Negative sampled tokens with label 0.
func trainPair(center []float64, output [][]float64, target int, opts TrainingOptions, sampler *unigramSampler, rng *rand.Rand, grad []float64) {
	for d := range grad {
		grad[d] = 0
	}
	for k := 0; k <= opts.Negative; k++ {
		sample := target
		label := 1.0
		if k > 0 {
			sample = sampler.draw(rng)
			if sample == target {
				continue
			}
			label = 0.0
		}
		out := output[sample]
		var dot float64
		for d := range center {
			dot += center[d] * out[d]
		}
		g := (label - sigmoid(dot)) * opts.LearningRate
		for d := range center {
			grad[d] += g * out[d]
			out[d] += g * center[d]
		}
	}
	for d := range center {
		center[d] += grad[d]
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// unigramSampler draws negative samples proportionally to count^0.75, the
// standard smoothed unigram distribution.
type unigramSampler struct {
	cumulative []float64
	total      float64
}

func newUnigramSampler(vocab []string, counts map[string]int) *unigramSampler {
	cumulative := make([]float64, len(vocab))
	total := 0.0
	for i, token := range vocab {
		total += math.Pow(float64(counts[token]), 0.75)
		cumulative[i] = total
	}
	return &unigramSampler{cumulative: cumulative, total: total}
}

func (s *unigramSampler) draw(rng *rand.Rand) int {
	x := rng.Float64() * s.total
	i := sort.SearchFloat64s(s.cumulative, x)
	if i >= len(s.cumulative) {
		i = len(s.cumulative) - 1
	}
	return i
}
