package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/history"
	"github.com/hyperjump/bunrui/internal/models"
)

func newTestServer(t *testing.T, sort SortFunc, train TrainFunc) *Server {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return NewServer(sort, train, store, &config.ServerConfig{Host: "localhost", Port: 8080}, zap.NewNop())
}

func TestHandleSort(t *testing.T) {
	var gotSource, gotTarget string
	sort := func(source, target string) (*models.RunStatistics, error) {
		gotSource, gotTarget = source, target
		return &models.RunStatistics{
			Total: 2, Sorted: 2,
			ByCategory: map[string]int{"work": 2},
			MethodUsed: "rules", ConflictPolicy: "rename",
		}, nil
	}
	srv := newTestServer(t, sort, nil)

	body := bytes.NewBufferString(`{"source_dir": "/in", "target_dir": "/out"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/sort", body)
	w := httptest.NewRecorder()
	srv.handleSort(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if gotSource != "/in" || gotTarget != "/out" {
		t.Errorf("sort called with (%q, %q)", gotSource, gotTarget)
	}
	var out struct {
		RunID string               `json:"run_id"`
		Stats models.RunStatistics `json:"stats"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Stats.Sorted != 2 {
		t.Errorf("stats = %+v", out.Stats)
	}
	if out.RunID == "" {
		t.Error("response should carry the recorded run id")
	}

	// The run landed in history.
	rr := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	ww := httptest.NewRecorder()
	srv.handleRuns(ww, rr)
	if ww.Code != http.StatusOK {
		t.Fatalf("runs status = %d", ww.Code)
	}
	var listed struct {
		Runs []history.Run `json:"runs"`
	}
	if err := json.NewDecoder(ww.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Runs) != 1 || listed.Runs[0].ID != out.RunID {
		t.Errorf("runs = %+v, want the recorded run", listed.Runs)
	}
}

func TestHandleSort_badRequests(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing dirs", `{"source_dir": ""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/sort", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			srv.handleSort(w, r)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestHandleSort_runError(t *testing.T) {
	sort := func(string, string) (*models.RunStatistics, error) {
		return nil, errors.New("disk on fire")
	}
	srv := newTestServer(t, sort, nil)

	body := bytes.NewBufferString(`{"source_dir": "/in", "target_dir": "/out"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/sort", body)
	w := httptest.NewRecorder()
	srv.handleSort(w, r)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestHandleTrain(t *testing.T) {
	trained := false
	srv := newTestServer(t, nil, func() error {
		trained = true
		return nil
	})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/train", nil)
	w := httptest.NewRecorder()
	srv.handleTrain(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !trained {
		t.Error("train func was not called")
	}
}

func TestHandleTrain_notConfigured(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/train", nil)
	w := httptest.NewRecorder()
	srv.handleTrain(w, r)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", w.Code)
	}
}

func TestHandleRuns_invalidLimit(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=abc", nil)
	w := httptest.NewRecorder()
	srv.handleRuns(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
