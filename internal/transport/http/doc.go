// Package http implements HTTP request handlers for the collector's status
// server. It provides a thin layer between HTTP transport and the pipeline,
// keeping handlers focused solely on HTTP concerns.
//
// # Endpoints
//
//	GET /healthz          liveness probe
//	GET /api/v1/progress  progress snapshot of the current run
//	GET /metrics          Prometheus metrics
//	GET /ws               websocket stream of per-security events
package http
