package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/models"
)

func TestStatsLines(t *testing.T) {
	stats := &models.RunStatistics{
		Total: 3, Sorted: 2, Skipped: 1,
		ByCategory:     map[string]int{"work": 2, "other": 1},
		MethodUsed:     "rules",
		ConflictPolicy: "rename",
	}
	categories := []models.Category{
		{Name: "work", Marker: "[W]"},
		{Name: "other", Marker: "[?]"},
	}
	lines := statsLines(stats, categories)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "3 files") || !strings.Contains(lines[0], "2 sorted") {
		t.Errorf("summary line = %q", lines[0])
	}
	// Category lines come sorted by name, with markers.
	if !strings.Contains(lines[1], "[?] other: 1") {
		t.Errorf("first category line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "[W] work: 2") {
		t.Errorf("second category line = %q", lines[2])
	}
}

func TestStatsLines_unknownCategoryMarker(t *testing.T) {
	stats := &models.RunStatistics{
		ByCategory: map[string]int{"mystery": 1},
	}
	lines := statsLines(stats, nil)
	if len(lines) != 2 || !strings.Contains(lines[1], "[ ] mystery: 1") {
		t.Errorf("lines = %v", lines)
	}
}

func TestReadTrainingData(t *testing.T) {
	content := `
work:
  - project meeting deadline
  - client report review
finance:
  - budget invoice payment
`
	path := filepath.Join(t.TempDir(), "training.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	training, err := readTrainingData(path)
	if err != nil {
		t.Fatalf("readTrainingData: %v", err)
	}
	if len(training) != 2 {
		t.Fatalf("categories = %d, want 2", len(training))
	}
	if len(training["work"]) != 2 || training["work"][0] != "project meeting deadline" {
		t.Errorf("work texts = %v", training["work"])
	}
}

func TestReadTrainingData_errors(t *testing.T) {
	if _, err := readTrainingData(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readTrainingData(path); err == nil {
		t.Error("empty file should error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("work: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readTrainingData(bad); err == nil {
		t.Error("malformed yaml should error")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()

	fs := flag.NewFlagSet("sort", flag.ContinueOnError)
	move := fs.Bool("move", false, "")
	ml := fs.Bool("ml", false, "")
	if err := fs.Parse([]string{"-move"}); err != nil {
		t.Fatal(err)
	}
	applyOverrides(cfg, fs, *move, "skip", *ml)

	if cfg.Sorter.CopyFilesOrDefault() {
		t.Error("-move should disable copying")
	}
	if cfg.Sorter.ConflictResolution != "skip" {
		t.Errorf("conflict = %q, want skip", cfg.Sorter.ConflictResolution)
	}
	// -ml was not passed, so the config value stays.
	if cfg.Sorter.UseML {
		t.Error("use_ml should be untouched when -ml is absent")
	}

	// An invalid policy override falls back to the validated default.
	applyOverrides(cfg, fs, *move, "explode", *ml)
	if cfg.Sorter.ConflictResolution != "rename" {
		t.Errorf("invalid policy = %q, want rename", cfg.Sorter.ConflictResolution)
	}
}

func TestTrainingOptions(t *testing.T) {
	cfg := &config.Config{}
	cfg.Model.VectorSize = 50
	cfg.Model.Epochs = 3
	opts := trainingOptions(cfg)
	if opts.VectorSize != 50 || opts.Epochs != 3 {
		t.Errorf("opts = %+v", opts)
	}
	// Unset window keeps the trainer default.
	if opts.Window != 5 {
		t.Errorf("window = %d, want 5", opts.Window)
	}
}
