package server

import "time"

// ServerOptions configures the query HTTP server
type ServerOptions struct {
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	RateLimitPerMinute int           `json:"rateLimitPerMinute"`
	RequestTimeout     time.Duration `json:"requestTimeout"`
}

// QueryRequest is the body of POST /v1/query
type QueryRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	Prompt    string         `json:"prompt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Model     string         `json:"model,omitempty"`
}

// QueryResponse is the success body of POST /v1/query
type QueryResponse struct {
	SessionID string         `json:"session_id"`
	Response  string         `json:"response"`
	ModelUsed string         `json:"model_used"`
	Metadata  map[string]any `json:"metadata"`
}

// ErrorResponse is the error body returned by all endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string  `json:"status"`
	Uptime    float64 `json:"uptime"`
	Sessions  int     `json:"sessions"`
	Timestamp int64   `json:"timestamp"`
}

// rateLimitState tracks request timestamps for one client IP
type rateLimitState struct {
	Requests []int64
}
