// Package sorter drives the sorting pipeline: scan the source directory,
// then extract, classify, resolve, and place each file, and summarize the
// run. Processing is strictly sequential; one file's failure never aborts
// the run.
package sorter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/classify"
	"github.com/hyperjump/bunrui/internal/conflict"
	"github.com/hyperjump/bunrui/internal/extract"
	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/pkg/utils"
)

// Config holds the placement settings for one run.
type Config struct {
	SourceDir  string
	TargetDir  string
	Extensions []string // matched case-insensitively, with leading dot
	CopyFiles  bool     // copy when true, move when false
}

// Sorter runs the pipeline over one source directory.
type Sorter struct {
	cfg        Config
	categories []models.Category
	extractor  *extract.Extractor
	classifier *classify.Classifier
	resolver   *conflict.Resolver
	logger     *zap.Logger
}

// New creates a sorter. logger may be nil.
func New(cfg Config, categories []models.Category, extractor *extract.Extractor, classifier *classify.Classifier, resolver *conflict.Resolver, logger *zap.Logger) *Sorter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sorter{
		cfg:        cfg,
		categories: categories,
		extractor:  extractor,
		classifier: classifier,
		resolver:   resolver,
		logger:     logger,
	}
}

// Run processes every supported file in the source directory and returns
// the run statistics. A run always completes: per-file problems are folded
// into the statistics, and a missing source directory yields an empty run.
func (s *Sorter) Run() (*models.RunStatistics, error) {
	stats := &models.RunStatistics{
		ByCategory:     make(map[string]int),
		ConflictPolicy: string(s.resolver.Policy()),
	}

	files, err := s.Scan()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		stats.MethodUsed = models.DominantMethod(0, 0)
		s.logSummary(stats)
		return stats, nil
	}

	if err := s.createCategoryFolders(); err != nil {
		return nil, err
	}

	for _, path := range files {
		outcome := s.SortFile(path)
		stats.Total++
		switch outcome.Status {
		case models.OutcomeSorted:
			stats.Sorted++
			stats.ByCategory[outcome.Category]++
		case models.OutcomeSkipped:
			stats.Skipped++
		case models.OutcomeFailed:
			stats.Failed++
		}
		switch outcome.Method {
		case models.MethodML:
			stats.MLCount++
		case models.MethodRules:
			stats.RulesCount++
		}
	}
	stats.MethodUsed = models.DominantMethod(stats.MLCount, stats.RulesCount)
	s.logSummary(stats)
	return stats, nil
}

// Scan lists the immediate files of the source directory with a supported
// extension, sorted by name. A missing source directory is reported and
// yields no files.
func (s *Sorter) Scan() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.SourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("source directory does not exist", zap.String("dir", s.cfg.SourceDir))
			return nil, nil
		}
		return nil, fmt.Errorf("scan source directory: %w", err)
	}

	supported := make(map[string]bool, len(s.cfg.Extensions))
	for _, ext := range s.cfg.Extensions {
		supported[strings.ToLower(ext)] = true
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if supported[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(s.cfg.SourceDir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// SortFile runs one file through extract, classify, resolve, and place.
func (s *Sorter) SortFile(path string) models.SortOutcome {
	text, err := s.extractor.Extract(path)
	var result models.ClassificationResult
	if err != nil || strings.TrimSpace(text) == "" {
		// Unreadable and empty files bypass the classifiers entirely.
		if err != nil {
			s.logger.Debug("extraction failed, using fallback category",
				zap.String("file", path), zap.Error(err))
		}
		result = models.ClassificationResult{Category: models.FallbackCategory, Method: models.MethodRules}
	} else {
		s.logger.Debug("extracted text",
			zap.String("file", path),
			zap.String("preview", utils.Truncate(text, 120)))
		result = s.classifier.Classify(text)
	}

	desired := filepath.Join(s.cfg.TargetDir, result.Category, filepath.Base(path))
	resolved, proceed, err := s.resolver.Resolve(desired)
	if err != nil {
		s.logger.Error("conflict resolution failed", zap.String("file", path), zap.Error(err))
		return models.SortOutcome{Source: path, Status: models.OutcomeFailed, Category: result.Category, Reason: err.Error(), Method: result.Method}
	}
	if !proceed {
		s.logger.Info("skipped, destination exists",
			zap.String("file", path), zap.String("destination", desired))
		return models.SortOutcome{Source: path, Status: models.OutcomeSkipped, Category: result.Category, Reason: "destination exists", Method: result.Method}
	}

	if s.cfg.CopyFiles {
		err = copyFile(path, resolved)
	} else {
		err = moveFile(path, resolved)
	}
	if err != nil {
		s.logger.Error("placement failed", zap.String("file", path), zap.Error(err))
		return models.SortOutcome{Source: path, Status: models.OutcomeFailed, Category: result.Category, Reason: err.Error(), Method: result.Method}
	}

	s.logger.Info("sorted",
		zap.String("file", filepath.Base(path)),
		zap.String("category", result.Category),
		zap.String("marker", models.MarkerFor(s.categories, result.Category)),
		zap.String("method", string(result.Method)),
		zap.Float64("confidence", result.Confidence))
	return models.SortOutcome{Source: path, Status: models.OutcomeSorted, Category: result.Category, Destination: resolved, Method: result.Method}
}

// createCategoryFolders creates every category's destination folder before
// any file is processed, the fallback included.
func (s *Sorter) createCategoryFolders() error {
	names := models.CategoryNames(s.categories)
	hasFallback := false
	for _, name := range names {
		if name == models.FallbackCategory {
			hasFallback = true
		}
	}
	if !hasFallback {
		names = append(names, models.FallbackCategory)
	}
	for _, name := range names {
		dir := filepath.Join(s.cfg.TargetDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create category folder %s: %w", dir, err)
		}
	}
	return nil
}

func (s *Sorter) logSummary(stats *models.RunStatistics) {
	s.logger.Info("run complete",
		zap.Int("total", stats.Total),
		zap.Int("sorted", stats.Sorted),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.String("method", stats.MethodUsed),
		zap.String("conflict_policy", stats.ConflictPolicy))
	for _, name := range sortedKeys(stats.ByCategory) {
		s.logger.Info("category count",
			zap.String("category", name),
			zap.String("marker", models.MarkerFor(s.categories, name)),
			zap.Int("files", stats.ByCategory[name]))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// copyFile copies src to dst preserving the file mode and modification time.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// moveFile renames src to dst, degrading to copy-and-remove across
// filesystem boundaries.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
