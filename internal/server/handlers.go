package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/history"
)

type sortRequest struct {
	SourceDir string `json:"source_dir"`
	TargetDir string `json:"target_dir"`
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceDir == "" || req.TargetDir == "" {
		s.respondError(w, http.StatusBadRequest, "source_dir and target_dir are required")
		return
	}
	if !s.jobs.TryLock() {
		s.respondError(w, http.StatusConflict, "another job is running")
		return
	}
	defer s.jobs.Unlock()

	s.logger.Debug("sort request",
		zap.String("source", req.SourceDir), zap.String("target", req.TargetDir))
	started := time.Now().UTC()
	stats, err := s.sort(req.SourceDir, req.TargetDir)
	if err != nil {
		s.logger.Error("sort failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	runID := ""
	if s.history != nil {
		id, err := s.history.Record(history.Run{
			StartedAt: started,
			SourceDir: req.SourceDir,
			TargetDir: req.TargetDir,
			Stats:     *stats,
		})
		if err != nil {
			s.logger.Warn("failed to record run", zap.Error(err))
		} else {
			runID = id
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"stats":  stats,
	})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if s.train == nil {
		s.respondError(w, http.StatusNotImplemented, "training not configured")
		return
	}
	if !s.jobs.TryLock() {
		s.respondError(w, http.StatusConflict, "another job is running")
		return
	}
	defer s.jobs.Unlock()

	if err := s.train(); err != nil {
		s.logger.Error("training failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "trained"})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	runs, err := s.history.List(limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
