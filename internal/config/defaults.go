package config

import "go.uber.org/zap"

// Default returns a complete default configuration, including a starter
// category set.
func Default() *Config {
	cfg := &Config{
		Categories: []CategoryConfig{
			{
				Name: "work",
				Keywords: []KeywordConfig{
					{Keyword: "project", Weight: 1.5},
					{Keyword: "meeting", Weight: 1.5},
					{Keyword: "deadline", Weight: 1.5},
					{Keyword: "client", Weight: 1.0},
					{Keyword: "report", Weight: 1.0},
				},
				Marker:      "[W]",
				Description: "Work documents and projects",
			},
			{
				Name: "finance",
				Keywords: []KeywordConfig{
					{Keyword: "budget", Weight: 2.0},
					{Keyword: "invoice", Weight: 2.0},
					{Keyword: "payment", Weight: 1.5},
					{Keyword: "salary", Weight: 1.5},
					{Keyword: "bank", Weight: 1.0},
				},
				Marker:      "[F]",
				Description: "Bills, budgets, and money matters",
			},
			{
				Name: "personal",
				Keywords: []KeywordConfig{
					{Keyword: "family", Weight: 1.5},
					{Keyword: "vacation", Weight: 1.5},
					{Keyword: "holiday", Weight: 1.0},
					{Keyword: "friends", Weight: 1.0},
				},
				Marker:      "[P]",
				Description: "Personal life and leisure",
			},
			{
				Name: "study",
				Keywords: []KeywordConfig{
					{Keyword: "lecture", Weight: 2.0},
					{Keyword: "exam", Weight: 2.0},
					{Keyword: "course", Weight: 1.5},
					{Keyword: "homework", Weight: 1.5},
				},
				Marker:      "[S]",
				Description: "Courses, lectures, and homework",
			},
			{
				Name:        "other",
				Marker:      "[?]",
				Description: "Everything that matched nothing",
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Sorter.SupportedExtensions == nil {
		cfg.Sorter.SupportedExtensions = []string{".txt", ".pdf", ".docx", ".doc", ".json", ".xml", ".xlsx"}
	}
	if cfg.Sorter.MinConfidenceScore == 0 {
		cfg.Sorter.MinConfidenceScore = 1.0
	}
	if cfg.Sorter.MLConfidenceThreshold == 0 {
		cfg.Sorter.MLConfidenceThreshold = 0.7
	}
	if cfg.Sorter.ConflictResolution == "" {
		cfg.Sorter.ConflictResolution = "rename"
	}
	if cfg.Model.Dir == "" {
		cfg.Model.Dir = "./models"
	}
	if cfg.Model.VectorSize == 0 {
		cfg.Model.VectorSize = 100
	}
	if cfg.Model.Window == 0 {
		cfg.Model.Window = 5
	}
	if cfg.Model.Epochs == 0 {
		cfg.Model.Epochs = 15
	}
	if cfg.History.DatabasePath == "" {
		cfg.History.DatabasePath = "./history.db"
	}
}

// Validate replaces invalid values with defaults, logging each replacement.
// Invalid configuration never stops a run. logger may be nil.
func Validate(cfg *Config, logger *zap.Logger) {
	warn := func(msg string, fields ...zap.Field) {
		if logger != nil {
			logger.Warn(msg, fields...)
		}
	}
	if cfg.Sorter.MinConfidenceScore < 0 {
		warn("invalid min_confidence_score, using default",
			zap.Float64("value", cfg.Sorter.MinConfidenceScore))
		cfg.Sorter.MinConfidenceScore = 1.0
	}
	if cfg.Sorter.MLConfidenceThreshold < 0 || cfg.Sorter.MLConfidenceThreshold > 1 {
		warn("invalid ml_confidence_threshold, using default",
			zap.Float64("value", cfg.Sorter.MLConfidenceThreshold))
		cfg.Sorter.MLConfidenceThreshold = 0.7
	}
	switch cfg.Sorter.ConflictResolution {
	case "skip", "overwrite", "rename":
	default:
		warn("invalid conflict_resolution, using rename",
			zap.String("value", cfg.Sorter.ConflictResolution))
		cfg.Sorter.ConflictResolution = "rename"
	}
	if cfg.Model.VectorSize < 0 {
		warn("invalid vector_size, using default", zap.Int("value", cfg.Model.VectorSize))
		cfg.Model.VectorSize = 100
	}
	if cfg.Model.Window < 0 {
		warn("invalid window, using default", zap.Int("value", cfg.Model.Window))
		cfg.Model.Window = 5
	}
	if cfg.Model.Epochs < 0 {
		warn("invalid epochs, using default", zap.Int("value", cfg.Model.Epochs))
		cfg.Model.Epochs = 15
	}
}
