package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/sheetpilot/sheetpilot/internal/observability"
	"github.com/sheetpilot/sheetpilot/internal/tracing"
	"github.com/sheetpilot/sheetpilot/pkg/assistant"
	"github.com/sheetpilot/sheetpilot/pkg/session"
)

// Server is the query HTTP server
type Server struct {
	options        ServerOptions
	server         *http.Server
	runner         *assistant.Runner
	store          session.Store
	rateLimiter    *RateLimiter
	logger         zerolog.Logger
	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates a new query server
func NewServer(options ServerOptions, runner *assistant.Runner, store session.Store, logger zerolog.Logger) (*Server, error) {
	if options.Port == 0 {
		options.Port = 8080
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.RateLimitPerMinute == 0 {
		options.RateLimitPerMinute = 100
	}
	if options.RequestTimeout == 0 {
		options.RequestTimeout = 60 * time.Second
	}

	if runner == nil {
		return nil, fmt.Errorf("assistant runner is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}

	return &Server{
		options:     options,
		runner:      runner,
		store:       store,
		rateLimiter: NewRateLimiter(options.RateLimitPerMinute),
		logger:      logger,
		startTime:   time.Now(),
	}, nil
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/v1/query", s.handleQuery)

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: mux,
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Msg("Starting query server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start query server: %w", err)
	}

	return nil
}

// Stop gracefully stops the server, draining in-flight requests
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down query server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.rateLimiter.Stop()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown query server: %w", err)
	}

	s.logger.Info().Msg("Query server stopped")
	return nil
}

// Handler returns the HTTP handler, for tests
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/v1/query", s.handleQuery)
	return mux
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions, err := s.store.List(r.Context())
	if err != nil {
		sessions = nil
	}
	observability.SetActiveSessions(len(sessions))

	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.startTime).Seconds(),
		Sessions:  len(sessions),
		Timestamp: time.Now().UnixMilli(),
	})
}

// handleQuery handles POST /v1/query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	ip := s.getClientIP(r)

	if !s.rateLimiter.CheckLimit(ip) {
		retryAfter := s.rateLimiter.GetRetryAfter(ip)
		s.logger.Warn().
			Str("ip", ip).
			Int("retryAfter", retryAfter).
			Msg("Rate limit exceeded")

		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	requestID, err := gonanoid.New()
	if err != nil {
		requestID = uuid.NewString()
	}
	ctx := tracing.NewRequestContext(r.Context(), requestID)
	logger := tracing.LoggerFromContext(ctx, s.logger)

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().Err(err).Str("ip", ip).Msg("Invalid request body")
		s.sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	// An empty prompt is answered inline and never touches the session.
	if strings.TrimSpace(req.Prompt) == "" {
		s.sendJSON(w, http.StatusOK, ErrorResponse{Error: "No prompt provided"})
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.options.RequestTimeout)
	defer cancel()

	result, err := s.runner.Query(queryCtx, assistant.QueryParams{
		SessionID: req.SessionID,
		Prompt:    req.Prompt,
		Metadata:  req.Metadata,
		Model:     req.Model,
	})

	duration := time.Since(startTime).Milliseconds()

	if err != nil {
		logger.Error().
			Err(err).
			Str("ip", ip).
			Str("sessionID", req.SessionID).
			Int64("duration", duration).
			Msg("Query failed")
		s.sendJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Inference failed"})
		return
	}

	logger.Info().
		Str("ip", ip).
		Str("sessionID", result.SessionID).
		Str("model", result.ModelUsed).
		Int64("duration", duration).
		Msg("Query completed")

	s.sendJSON(w, http.StatusOK, QueryResponse{
		SessionID: result.SessionID,
		Response:  result.Response,
		ModelUsed: result.ModelUsed,
		Metadata:  result.Metadata,
	})
}

// sendJSON writes a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// getClientIP extracts the client IP from the request
func (s *Server) getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
