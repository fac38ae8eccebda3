// Package server provides the HTTP REST API for course analysis.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/course-compass/internal/discussion"
	"github.com/jonathan/course-compass/internal/pipeline"
	"github.com/jonathan/course-compass/internal/progress"
	"github.com/jonathan/course-compass/internal/reviewdb"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	runner     *pipeline.Runner
	threads    *discussion.Client
	reviews    *reviewdb.Client
	progress   *progress.Registry
	validate   *validator.Validate
}

// Config holds server configuration
type Config struct {
	Port    int
	Runner  *pipeline.Runner
	Threads *discussion.Client
	Reviews *reviewdb.Client
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("server: pipeline runner is required")
	}
	if cfg.Threads == nil {
		return nil, fmt.Errorf("server: discussion client is required")
	}
	if cfg.Reviews == nil {
		return nil, fmt.Errorf("server: review database client is required")
	}

	// The runner and the progress endpoints must share one registry so
	// streamed sessions are visible to pollers.
	if cfg.Runner.Progress == nil {
		cfg.Runner.Progress = progress.NewRegistry()
	}

	s := &Server{
		runner:   cfg.Runner,
		threads:  cfg.Threads,
		reviews:  cfg.Reviews,
		progress: cfg.Runner.Progress,
		validate: validator.New(),
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/analyze/stream", s.handleAnalyzeStream)
	mux.HandleFunc("GET /api/progress/{session}", s.handleProgress)

	// Thin connector passthroughs
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/threads/{id}/replies", s.handleThreadReplies)
	mux.HandleFunc("GET /api/subjects", s.handleSubjects)
	mux.HandleFunc("GET /api/subjects/{code}/summary", s.handleSubjectSummary)

	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.handler = s.withLogging(s.withCORS(mux))

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for analysis runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler exposes the routed handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Sweep progress sessions whose run never reached its cleanup.
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	s.progress.StartJanitor(janitorCtx, progress.DefaultJanitorInterval)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
