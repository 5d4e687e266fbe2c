// Package modelstore persists trained word-vector models. The vocabulary
// uses the word2vec text format ("count dims" header, then one
// "token v1 v2 ..." line per entry), so externally trained vector files
// load through the same reader.
package modelstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/vectormodel"
)

const (
	vectorsFile    = "model.vec"
	referencesFile = "category_vectors.json"

	// maxLineBytes bounds one vocabulary line; pretrained files can carry
	// 300-dimensional vectors with full float precision.
	maxLineBytes = 1 << 20
)

// Store reads and writes model files under a directory. When a pretrained
// vector path is set, Load uses it for the vocabulary instead of the
// locally trained file; category reference vectors always live in the
// store directory.
type Store struct {
	dir            string
	pretrainedPath string
	logger         *zap.Logger
}

// New creates a store. pretrainedPath may be empty; logger may be nil.
func New(dir, pretrainedPath string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, pretrainedPath: pretrainedPath, logger: logger}
}

// Save writes the model's vocabulary and reference vectors. Pretrained
// vocabularies are not rewritten; only the references are, since they are
// the product of training against that vocabulary.
func (s *Store) Save(m *vectormodel.Model) error {
	if !m.Ready() {
		return fmt.Errorf("model is not ready, nothing to save")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	if space, ok := m.Space().(*vectormodel.TrainedSpace); ok {
		if err := s.writeSpace(space); err != nil {
			return err
		}
	}

	refs := make(map[string][]float32, len(m.References()))
	for _, ref := range m.References() {
		refs[ref.Category] = ref.Vector
	}
	data, err := json.MarshalIndent(refs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode references: %w", err)
	}
	path := filepath.Join(s.dir, referencesFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write references: %w", err)
	}
	s.logger.Info("model saved",
		zap.String("dir", s.dir),
		zap.Int("categories", len(refs)))
	return nil
}

// Load reads the persisted model. It returns an error when either the
// vocabulary or the references are missing or malformed; callers decide
// whether that disables vector classification or aborts.
func (s *Store) Load() (*vectormodel.Model, error) {
	space, err := s.loadSpace()
	if err != nil {
		return nil, err
	}
	refs, err := s.loadReferences()
	if err != nil {
		return nil, err
	}
	s.logger.Info("model loaded",
		zap.Int("dimensions", space.Dimensions()),
		zap.Bool("pretrained", space.Pretrained()),
		zap.Int("categories", len(refs)))
	return vectormodel.New(space, refs, s.logger), nil
}

func (s *Store) loadSpace() (vectormodel.Space, error) {
	if s.pretrainedPath != "" {
		dims, vectors, err := readVectorsFile(s.pretrainedPath)
		if err != nil {
			return nil, fmt.Errorf("pretrained vectors: %w", err)
		}
		return vectormodel.NewPretrainedSpace(dims, vectors)
	}
	dims, vectors, err := readVectorsFile(filepath.Join(s.dir, vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("trained vectors: %w", err)
	}
	return vectormodel.NewTrainedSpace(dims, vectors)
}

func (s *Store) loadReferences() ([]vectormodel.Reference, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, referencesFile))
	if err != nil {
		return nil, fmt.Errorf("read references: %w", err)
	}
	byCategory := make(map[string][]float32)
	if err := json.Unmarshal(data, &byCategory); err != nil {
		return nil, fmt.Errorf("decode references: %w", err)
	}
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	refs := make([]vectormodel.Reference, 0, len(names))
	for _, name := range names {
		refs = append(refs, vectormodel.Reference{Category: name, Vector: byCategory[name]})
	}
	return refs, nil
}

func (s *Store) writeSpace(space *vectormodel.TrainedSpace) error {
	path := filepath.Join(s.dir, vectorsFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	tokens := space.Tokens()
	fmt.Fprintf(w, "%d %d\n", len(tokens), space.Dimensions())
	for _, token := range tokens {
		vec, _ := space.VectorFor(token)
		w.WriteString(token)
		for _, v := range vec {
			w.WriteByte(' ')
			w.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	return f.Close()
}

// readVectorsFile parses a word2vec text file. Entries whose vector length
// disagrees with the header are rejected.
func readVectorsFile(path string) (int, map[string][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if !scanner.Scan() {
		return 0, nil, fmt.Errorf("%s: missing header", path)
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 2 {
		return 0, nil, fmt.Errorf("%s: malformed header %q", path, scanner.Text())
	}
	count, err := strconv.Atoi(header[0])
	if err != nil {
		return 0, nil, fmt.Errorf("%s: vocabulary count: %w", path, err)
	}
	dims, err := strconv.Atoi(header[1])
	if err != nil {
		return 0, nil, fmt.Errorf("%s: dimensions: %w", path, err)
	}
	if dims <= 0 {
		return 0, nil, fmt.Errorf("%s: dimensions must be positive, got %d", path, dims)
	}

	vectors := make(map[string][]float32, count)
	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != dims+1 {
			return 0, nil, fmt.Errorf("%s:%d: expected %d values, got %d", path, line, dims, len(fields)-1)
		}
		vec := make([]float32, dims)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return 0, nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
			vec[i] = float32(v)
		}
		vectors[fields[0]] = vec
	}
	if err := scanner.Err(); err != nil {
		return 0, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(vectors) == 0 {
		return 0, nil, fmt.Errorf("%s: no vocabulary entries", path)
	}
	return dims, vectors, nil
}
