// Package server provides the HTTP API for Bunrui.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/history"
	"github.com/hyperjump/bunrui/internal/models"
)

// SortFunc runs one sort over the given directories and returns its
// statistics. The pipeline is sequential, so the server never runs two
// jobs at once.
type SortFunc func(sourceDir, targetDir string) (*models.RunStatistics, error)

// TrainFunc retrains the vector model from the configured training data.
type TrainFunc func() error

// Server is the HTTP server for the Bunrui API.
type Server struct {
	sort    SortFunc
	train   TrainFunc
	history *history.Store // may be nil
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	jobs    sync.Mutex // serializes sort and train jobs
}

// NewServer creates a server with the given dependencies. hist may be nil
// when run history is disabled.
func NewServer(sort SortFunc, train TrainFunc, hist *history.Store, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		sort:    sort,
		train:   train,
		history: hist,
		config:  cfg,
		logger:  logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Post("/api/v1/sort", s.handleSort)
	r.Post("/api/v1/train", s.handleTrain)
	r.Get("/api/v1/runs", s.handleRuns)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
