// Package config provides configuration loading and structs for the Bunrui sorter.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/bunrui/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Sorter     SorterConfig     `yaml:"sorter"`
	Model      ModelConfig      `yaml:"model"`
	History    HistoryConfig    `yaml:"history"`
	Categories []CategoryConfig `yaml:"categories"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SorterConfig holds classification and placement settings.
type SorterConfig struct {
	SupportedExtensions   []string `yaml:"supported_extensions"`
	MinConfidenceScore    float64  `yaml:"min_confidence_score"`
	MLConfidenceThreshold float64  `yaml:"ml_confidence_threshold"`
	CopyFiles             *bool    `yaml:"copy_files"`
	UseML                 bool     `yaml:"use_ml"`
	ConflictResolution    string   `yaml:"conflict_resolution"` // skip, overwrite, rename
}

// CopyFilesOrDefault returns whether files are copied rather than moved;
// defaults to true when unset.
func (s *SorterConfig) CopyFilesOrDefault() bool {
	if s.CopyFiles != nil {
		return *s.CopyFiles
	}
	return true
}

// ModelConfig holds word-vector model settings and artifact paths.
type ModelConfig struct {
	Dir            string `yaml:"dir"`             // directory for trained artifacts
	PretrainedPath string `yaml:"pretrained_path"` // optional pretrained .vec file
	VectorSize     int    `yaml:"vector_size"`
	Window         int    `yaml:"window"`
	Epochs         int    `yaml:"epochs"`
}

// HistoryConfig holds the run-history database path.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CategoryConfig is one classification bucket as configured. Categories are
// a YAML list, not a mapping, so their file order is preserved; that order
// is the tie-break order for rule scoring.
type CategoryConfig struct {
	Name        string          `yaml:"name"`
	Keywords    []KeywordConfig `yaml:"keywords"`
	Marker      string          `yaml:"marker"`
	Description string          `yaml:"description"`
}

// KeywordConfig is a weighted keyword. It accepts either a [word, weight]
// pair or a bare string (weight 1.0) for backward compatibility.
type KeywordConfig struct {
	Keyword string
	Weight  float64
}

// UnmarshalYAML decodes either "word" or ["word", 2.0].
func (k *KeywordConfig) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		k.Keyword = value.Value
		k.Weight = 1.0
		return nil
	case yaml.SequenceNode:
		var pair []yaml.Node
		if err := value.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("keyword entry must be a string or a [word, weight] pair")
		}
		if err := pair[0].Decode(&k.Keyword); err != nil {
			return err
		}
		if err := pair[1].Decode(&k.Weight); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("keyword entry must be a string or a [word, weight] pair")
	}
}

// MarshalYAML encodes the keyword as a [word, weight] pair.
func (k KeywordConfig) MarshalYAML() (interface{}, error) {
	return []interface{}{k.Keyword, k.Weight}, nil
}

// CategoryModels converts the configured categories to model types,
// dropping entries with an empty name and empty keywords.
func (c *Config) CategoryModels() []models.Category {
	out := make([]models.Category, 0, len(c.Categories))
	for _, cc := range c.Categories {
		if strings.TrimSpace(cc.Name) == "" {
			continue
		}
		cat := models.Category{
			Name:        cc.Name,
			Marker:      cc.Marker,
			Description: cc.Description,
		}
		for _, kw := range cc.Keywords {
			if kw.Keyword == "" {
				continue
			}
			cat.Keywords = append(cat.Keywords, models.WeightedKeyword{Keyword: kw.Keyword, Weight: kw.Weight})
		}
		out = append(out, cat)
	}
	return out
}

// Load reads the config file at path. A run must always be able to start,
// so load problems degrade instead of failing: a missing file creates a
// default config at path and returns defaults, and an unparseable file is
// logged and replaced with defaults. Invalid individual values are reset
// by Validate. logger may be nil.
func Load(path string, logger *zap.Logger) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if writeErr := Save(path, cfg); writeErr != nil {
				if logger != nil {
					logger.Warn("could not write default config", zap.String("path", path), zap.Error(writeErr))
				}
			} else if logger != nil {
				logger.Info("created default config", zap.String("path", path))
			}
			return cfg
		}
		if logger != nil {
			logger.Error("failed to read config, using defaults", zap.String("path", path), zap.Error(err))
		}
		return Default()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		if logger != nil {
			logger.Error("failed to parse config, using defaults", zap.String("path", path), zap.Error(err))
		}
		return Default()
	}

	ApplyDefaults(&cfg)
	Validate(&cfg, logger)

	configDir := filepath.Dir(path)
	cfg.Model.Dir = expandPath(cfg.Model.Dir, configDir)
	if cfg.Model.PretrainedPath != "" {
		cfg.Model.PretrainedPath = expandPath(cfg.Model.PretrainedPath, configDir)
	}
	cfg.History.DatabasePath = expandPath(cfg.History.DatabasePath, configDir)
	return &cfg
}

// Save writes the config to path, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
