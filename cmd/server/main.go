package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/skyradar/reqcover/analysis"
	"github.com/skyradar/reqcover/internal/logger"
	"github.com/skyradar/reqcover/requirement"
	"github.com/skyradar/reqcover/scenario"
)

type Server struct {
	db     *sql.DB
	store  requirement.Store
	cache  requirement.Cache
	runner *analysis.Runner
	router *chi.Mux
}

func NewServer(databaseURL string) (*Server, error) {
	// Connect to database
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewServerWithDB(db)
}

// NewServerWithDB creates a server on an existing database connection
func NewServerWithDB(db *sql.DB) (*Server, error) {
	s := &Server{
		db:     db,
		store:  requirement.NewPostgresStore(db),
		cache:  requirement.NewInMemoryCache(requirement.DefaultCacheConfig()),
		runner: analysis.NewRunner(0),
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)

	// Analysis
	r.Post("/api/v1/analyze", s.handleAnalyze)

	// Requirement management
	r.Route("/api/v1/requirements", func(r chi.Router) {
		r.Get("/", s.handleListRequirements)
		r.Post("/", s.handleCreateRequirement)

		r.Route("/{requirementId}", func(r chi.Router) {
			r.Get("/", s.handleGetRequirement)
			r.Put("/", s.handleUpdateRequirement)
			r.Delete("/", s.handleDeleteRequirement)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// activeRequirements returns the active requirement list through the cache
func (s *Server) activeRequirements() ([]*requirement.Requirement, error) {
	if reqs := s.cache.Get(); reqs != nil {
		return reqs, nil
	}
	reqs, err := s.store.ListActive()
	if err != nil {
		return nil, err
	}
	s.cache.Set(reqs)
	return reqs, nil
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"warnings": logger.TotalWarnings.Load(),
		"errors":   logger.TotalErrors.Load(),
	})
}

// Analysis handler: verifies one requirement (or all active ones) against a
// scenario corpus supplied inline or as a server-local directory
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.ScenarioDir == "" && len(req.Scenarios) == 0 {
		respondError(w, http.StatusBadRequest, "scenarioDir or scenarios are required", nil)
		return
	}

	var reqs []*requirement.Requirement
	if req.RequirementID == "" || req.RequirementID == "all" {
		var err error
		reqs, err = s.activeRequirements()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to list requirements", err)
			return
		}
	} else {
		stored, err := s.store.Get(req.RequirementID)
		if err != nil {
			respondError(w, http.StatusNotFound, "requirement not found", err)
			return
		}
		reqs = []*requirement.Requirement{stored}
	}

	loaded, err := loadCorpus(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to load scenario corpus", err)
		return
	}

	units := make([]analysis.Unit, 0, len(reqs))
	for _, stored := range reqs {
		units = append(units, analysis.NewUnit(stored, loaded))
	}

	startTime := time.Now()
	reports := s.runner.Run(r.Context(), units)
	analysisTime := time.Since(startTime)

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		Reports:      reports,
		AnalysisTime: analysisTime.String(),
	})
}

// loadCorpus resolves the request's corpus: inline documents win over a
// server-local directory. Inline scenarios keep request order as corpus order
func loadCorpus(req AnalyzeRequest) ([]scenario.LoadResult, error) {
	if len(req.Scenarios) == 0 {
		return scenario.LoadDir(req.ScenarioDir)
	}

	results := make([]scenario.LoadResult, 0, len(req.Scenarios))
	for i, doc := range req.Scenarios {
		sc, err := scenario.Parse([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i+1, err)
		}
		var warn error
		if sc.AssertionCount() == 0 {
			warn = fmt.Errorf("%w: %s", scenario.ErrNoAssertions, sc.ID)
		}
		results = append(results, scenario.LoadResult{Scenario: sc, Warn: warn})
	}
	return results, nil
}

// List requirements handler
func (s *Server) handleListRequirements(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.activeRequirements()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list requirements", err)
		return
	}

	list := make([]RequirementResponse, 0, len(reqs))
	for _, stored := range reqs {
		list = append(list, toRequirementResponse(stored))
	}

	respondJSON(w, http.StatusOK, RequirementsListResponse{Requirements: list})
}

// Create requirement handler
func (s *Server) handleCreateRequirement(w http.ResponseWriter, r *http.Request) {
	var req CreateRequirementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.ID == "" || len(req.Conditions) == 0 {
		respondError(w, http.StatusBadRequest, "id and conditions are required", nil)
		return
	}

	stored, err := requirement.Assemble(&requirement.Requirement{
		ID:         req.ID,
		Title:      req.Title,
		Observable: req.Observable,
		Schema:     requirement.Schema(req.Variables),
		Active:     true,
	}, req.Conditions)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid requirement", err)
		return
	}

	if err := s.store.Add(stored); err != nil {
		respondError(w, http.StatusConflict, "failed to add requirement", err)
		return
	}
	s.cache.Invalidate()

	respondJSON(w, http.StatusCreated, toRequirementResponse(stored))
}

// Get requirement handler
func (s *Server) handleGetRequirement(w http.ResponseWriter, r *http.Request) {
	requirementID := chi.URLParam(r, "requirementId")

	stored, err := s.store.Get(requirementID)
	if err != nil {
		respondError(w, http.StatusNotFound, "requirement not found", err)
		return
	}

	respondJSON(w, http.StatusOK, toRequirementResponse(stored))
}

// Update requirement handler
func (s *Server) handleUpdateRequirement(w http.ResponseWriter, r *http.Request) {
	requirementID := chi.URLParam(r, "requirementId")

	var req CreateRequirementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	stored, err := requirement.Assemble(&requirement.Requirement{
		ID:         requirementID,
		Title:      req.Title,
		Observable: req.Observable,
		Schema:     requirement.Schema(req.Variables),
		Active:     true,
	}, req.Conditions)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid requirement", err)
		return
	}

	if err := s.store.Update(stored); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, requirement.ErrNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, "failed to update requirement", err)
		return
	}
	s.cache.Invalidate()

	respondJSON(w, http.StatusOK, toRequirementResponse(stored))
}

// Delete requirement handler
func (s *Server) handleDeleteRequirement(w http.ResponseWriter, r *http.Request) {
	requirementID := chi.URLParam(r, "requirementId")

	if err := s.store.Delete(requirementID); err != nil {
		respondError(w, http.StatusNotFound, "requirement not found", err)
		return
	}
	s.cache.Invalidate()

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	// Get database URL from environment
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	// Create server
	server, err := NewServer(databaseURL)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	defer server.db.Close()

	// Start HTTP server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
