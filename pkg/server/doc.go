// Package server exposes the assistant over HTTP.
//
// POST /v1/query runs one assistant query against a session, GET
// /health reports liveness and the persisted session count, and GET
// /metrics serves the Prometheus exposition. Requests are rate limited
// per client IP with a sliding one-minute window, and shutdown drains
// in-flight requests before closing the listener.
package server
