package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcher_reportsSettledFiles(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	var seen []string
	onFile := func(path string) {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
	}

	w := New(dir, []string{".txt"}, onFile, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	want := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(want, []byte("project plan"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the file callback")
		case <-time.After(20 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, path := range seen {
		if path != want {
			t.Errorf("unexpected callback for %s", path)
		}
	}
}

func TestWatcher_debounceCollapsesWrites(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	count := 0
	onFile := func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	}

	w := New(dir, nil, onFile, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "growing.txt")
	for i := 0; i < 5; i++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.WriteString("more "); err != nil {
			t.Fatal(err)
		}
		f.Close()
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("callbacks = %d, want 1 after debouncing", count)
	}
}

func TestWatcher_createsMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "incoming")
	w := New(root, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Errorf("root should have been created: %v", err)
	}
}

func TestWatcher_stopIsIdempotent(t *testing.T) {
	w := New(t.TempDir(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
