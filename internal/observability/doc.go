// Package observability groups the logging, metrics and tracing support used
// by the crawl worker and the read API.
//
// Subpackages:
//   - logging: slog construction and context propagation of request and cycle IDs
//   - metrics: Prometheus collectors for render calls, crawl cycles and storage
//   - tracing: OpenTelemetry tracer access and HTTP middleware
package observability
