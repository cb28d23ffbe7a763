// Package server provides the HTTP REST API for the content validation service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/diff"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/discovery"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/guidelines"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/llm"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/progress"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/server/ratelimit"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	hub         *progress.Hub
	discoverer  *discovery.Discoverer
	guidelines  *guidelines.Service
	diff        *diff.Engine
	store       storage.Store
	rateLimiter *ratelimit.Limiter

	corsOrigins    []string
	maxUploadBytes int64
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	CORSOrigins []string

	MaxUploadSizeMB int
	MaxCrawlPages   int
	MaxCrawlDepth   int
	BrowserTimeout  time.Duration

	// LLM powers guideline rule extraction on uploads; nil disables it
	// and uploads still succeed with an extraction-skipped manifest.
	LLM llm.Client

	// Store receives uploaded guideline documents and export copies;
	// nil disables both side channels.
	Store storage.Store

	Verbose bool
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxUploadMB := cfg.MaxUploadSizeMB
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}

	s := &Server{
		db:             database,
		hub:            progress.NewHub(),
		store:          cfg.Store,
		corsOrigins:    cfg.CORSOrigins,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	s.discoverer = discovery.NewDiscoverer(cfg.MaxCrawlPages, cfg.MaxCrawlDepth, cfg.BrowserTimeout, cfg.Verbose)
	s.guidelines = guidelines.NewService(database, cfg.LLM, cfg.Store)
	s.guidelines.Verbose = cfg.Verbose
	s.diff = diff.New(database)

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Discovery and validation
	mux.HandleFunc("POST /api/discover", s.handleDiscover)
	mux.HandleFunc("POST /api/validate", s.handleValidate)

	// Job endpoints
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJobStatus)
	mux.HandleFunc("GET /api/jobs/{id}/events", s.handleJobEvents)
	mux.HandleFunc("GET /api/jobs/{id}/results", s.handleJobResults)
	mux.HandleFunc("POST /api/jobs/{id}/cancel", s.handleJobCancel)
	mux.HandleFunc("GET /api/jobs/{id}/export.csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/jobs/{id}/export.xlsx", s.handleExportXLSX)

	// Scan history and regression diffs
	mux.HandleFunc("GET /api/scans", s.handleListScans)
	mux.HandleFunc("GET /api/scans/recent", s.handleRecentScans)
	mux.HandleFunc("GET /api/scans/{id}/compare", s.handleCompareScans)
	mux.HandleFunc("GET /api/scans/{id}/compare-to-last", s.handleCompareToLast)

	// Project endpoints
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)

	// Guideline endpoints
	mux.HandleFunc("POST /api/guidelines", s.handleCreateGuidelineSet)
	mux.HandleFunc("GET /api/guidelines", s.handleListGuidelineSets)
	mux.HandleFunc("GET /api/guidelines/{id}", s.handleGetGuidelineSet)
	mux.HandleFunc("POST /api/guidelines/{id}/versions", s.handleAddGuidelineVersion)
	mux.HandleFunc("GET /api/guidelines/{id}/versions/{vid}/rules", s.handleListVersionRules)

	// Exclusion profile endpoints
	mux.HandleFunc("POST /api/exclusions", s.handleCreateExclusionProfile)
	mux.HandleFunc("GET /api/exclusions", s.handleListExclusionProfiles)
	mux.HandleFunc("GET /api/exclusions/{id}", s.handleGetExclusionProfile)
	mux.HandleFunc("DELETE /api/exclusions/{id}", s.handleDeleteExclusionProfile)
	mux.HandleFunc("POST /api/exclusions/{id}/rules", s.handleAddExclusionRule)
	mux.HandleFunc("DELETE /api/exclusions/{id}/rules/{rid}", s.handleDeleteExclusionRule)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.withRateLimit(s.withLogging(s.withCORS(mux))),
		// Write timeout also bounds SSE streams; subscribers that get cut
		// reconnect and resume from the current snapshot.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests and blocks until shutdown. The
// embedded progress listener bridges worker progress notifications into
// this process for SSE subscribers.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	listenCtx, cancelListen := context.WithCancel(context.Background())
	defer cancelListen()
	go s.runProgressListener(listenCtx)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	cancelListen()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers for the configured origins
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allowOrigin resolves the Access-Control-Allow-Origin value for a request
// origin. An empty configured list allows everything.
func (s *Server) allowOrigin(origin string) string {
	if len(s.corsOrigins) == 0 {
		return "*"
	}
	for _, allowed := range s.corsOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
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

// handleHealth reports server health, including database reachability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
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

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; deployments behind a proxy
// would swap in X-Forwarded-For from trusted hops.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
