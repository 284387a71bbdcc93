// Package tracing provides OpenTelemetry spans for the crawl pipeline and the
// read API. Spans go to the globally registered TracerProvider; without one
// they are no-ops.
//
//	ctx, span := tracing.StartSpan(ctx, "crawl.target", attribute.String("category", c))
//	defer span.End()
package tracing
