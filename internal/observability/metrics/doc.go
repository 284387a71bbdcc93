// Package metrics provides the Prometheus collectors shared by the crawl
// worker and the read API. Collectors are registered with the default
// registry at package init and exposed on /metrics.
//
// Example usage:
//
//	start := time.Now()
//	html, err := client.Fetch(ctx, url, wait)
//	metrics.RecordRender(outcome, time.Since(start), len(html))
package metrics
