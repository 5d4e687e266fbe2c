package sorter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/bunrui/internal/classify"
	"github.com/hyperjump/bunrui/internal/conflict"
	"github.com/hyperjump/bunrui/internal/extract"
	"github.com/hyperjump/bunrui/internal/models"
)

func testCategories() []models.Category {
	return []models.Category{
		{Name: "work", Marker: "[W]", Keywords: []models.WeightedKeyword{
			{Keyword: "project", Weight: 1.0},
			{Keyword: "meeting", Weight: 1.0},
		}},
		{Name: "finance", Marker: "[F]", Keywords: []models.WeightedKeyword{
			{Keyword: "budget", Weight: 1.0},
		}},
		{Name: "other", Marker: "[?]"},
	}
}

func newTestSorter(t *testing.T, source, target string, copyFiles bool, policy conflict.Policy) *Sorter {
	t.Helper()
	cats := testCategories()
	rules := classify.NewRuleClassifier(cats, 1.0)
	classifier := classify.New(rules, nil, false, 0.7, nil)
	cfg := Config{
		SourceDir:  source,
		TargetDir:  target,
		Extensions: []string{".txt", ".json"},
		CopyFiles:  copyFiles,
	}
	return New(cfg, cats, extract.NewExtractor(), classifier, conflict.New(policy, nil), nil)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSorter_Run(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(source, "notes.txt"), "project meeting agenda for the project")
	writeFile(t, filepath.Join(source, "tasks.txt"), "meeting with project owners")
	writeFile(t, filepath.Join(source, "random.txt"), "nothing relevant at all")

	s := newTestSorter(t, source, target, true, conflict.PolicyRename)
	stats, err := s.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Total != 3 || stats.Sorted != 3 || stats.Skipped != 0 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want total=3 sorted=3", stats)
	}
	if stats.ByCategory["work"] != 2 || stats.ByCategory["other"] != 1 {
		t.Errorf("by_category = %v, want work:2 other:1", stats.ByCategory)
	}
	if stats.MethodUsed != "rules" {
		t.Errorf("method = %q, want rules", stats.MethodUsed)
	}
	if stats.ConflictPolicy != "rename" {
		t.Errorf("conflict policy = %q, want rename", stats.ConflictPolicy)
	}

	for _, want := range []string{
		filepath.Join(target, "work", "notes.txt"),
		filepath.Join(target, "work", "tasks.txt"),
		filepath.Join(target, "other", "random.txt"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("missing destination %s: %v", want, err)
		}
	}
	// Copy mode keeps the sources in place.
	if _, err := os.Stat(filepath.Join(source, "notes.txt")); err != nil {
		t.Errorf("source should survive a copy run: %v", err)
	}
	// Folders exist for every category even when unused.
	if _, err := os.Stat(filepath.Join(target, "finance")); err != nil {
		t.Errorf("unused category folder should exist: %v", err)
	}
}

func TestSorter_RunTwiceWithSkipPolicy(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(source, "a.txt"), "project plan")
	writeFile(t, filepath.Join(source, "b.txt"), "no matches here")

	s := newTestSorter(t, source, target, true, conflict.PolicySkip)
	if _, err := s.Run(); err != nil {
		t.Fatal(err)
	}
	stats, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != stats.Total || stats.Sorted != 0 {
		t.Errorf("second run = %+v, want every file skipped", stats)
	}
}

func TestSorter_moveRemovesSource(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(source, "a.txt"), "project plan")

	s := newTestSorter(t, source, target, false, conflict.PolicyRename)
	stats, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sorted != 1 {
		t.Fatalf("stats = %+v, want sorted=1", stats)
	}
	if _, err := os.Stat(filepath.Join(source, "a.txt")); !os.IsNotExist(err) {
		t.Error("move should remove the source file")
	}
	if _, err := os.Stat(filepath.Join(target, "work", "a.txt")); err != nil {
		t.Errorf("moved file missing: %v", err)
	}
}

func TestSorter_missingSourceDir(t *testing.T) {
	s := newTestSorter(t, filepath.Join(t.TempDir(), "nope"), t.TempDir(), true, conflict.PolicyRename)
	stats, err := s.Run()
	if err != nil {
		t.Fatalf("missing source must not be fatal: %v", err)
	}
	if stats.Total != 0 || stats.MethodUsed != "none" {
		t.Errorf("stats = %+v, want empty run with method none", stats)
	}
}

func TestSorter_emptyFileGoesToFallback(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(source, "empty.txt"), "")
	writeFile(t, filepath.Join(source, "blank.txt"), "  \n\t ")

	s := newTestSorter(t, source, target, true, conflict.PolicyRename)
	stats, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	if stats.ByCategory["other"] != 2 {
		t.Errorf("by_category = %v, want other:2", stats.ByCategory)
	}
}

func TestSorter_Scan(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "b.txt"), "x")
	writeFile(t, filepath.Join(source, "a.TXT"), "x")
	writeFile(t, filepath.Join(source, "data.json"), "{}")
	writeFile(t, filepath.Join(source, "image.png"), "x")
	if err := os.Mkdir(filepath.Join(source, "sub.txt"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(source, "sub.txt", "nested.txt"), "x")

	s := newTestSorter(t, source, t.TempDir(), true, conflict.PolicyRename)
	files, err := s.Scan()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(source, "a.TXT"),
		filepath.Join(source, "b.txt"),
		filepath.Join(source, "data.json"),
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestSorter_renameOnCollision(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(source, "test.txt"), "project plan")
	// Pre-existing destination forces the numbered variant.
	if err := os.MkdirAll(filepath.Join(target, "work"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(target, "work", "test.txt"), "already here")

	s := newTestSorter(t, source, target, true, conflict.PolicyRename)
	stats, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sorted != 1 {
		t.Fatalf("stats = %+v, want sorted=1", stats)
	}
	if _, err := os.Stat(filepath.Join(target, "work", "test_1.txt")); err != nil {
		t.Errorf("renamed destination missing: %v", err)
	}
}
