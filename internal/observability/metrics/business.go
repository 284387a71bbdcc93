package metrics

import (
	"time"
)

// Render outcomes.
const (
	RenderOK          = "ok"
	RenderTimeout     = "timeout"
	RenderUnreachable = "unreachable"
	RenderStatus4xx   = "status_4xx"
	RenderStatus5xx   = "status_5xx"
	RenderRejected    = "rejected"
)

// RecordRender records one render call. size is ignored unless the outcome is ok.
func RecordRender(outcome string, duration time.Duration, size int) {
	RenderRequestsTotal.WithLabelValues(outcome).Inc()
	RenderDuration.Observe(duration.Seconds())
	if outcome == RenderOK {
		RenderResponseSize.Observe(float64(size))
	}
}

// RenderStatusOutcome maps a non-success HTTP status to its outcome label.
func RenderStatusOutcome(code int) string {
	if code >= 500 {
		return RenderStatus5xx
	}
	return RenderStatus4xx
}

// RecordDiscovery records the candidates found on one overview page and how
// many of them were already seen.
func RecordDiscovery(category string, found, duplicates int) {
	CandidatesFoundTotal.WithLabelValues(category).Add(float64(found))
	DuplicatesTotal.WithLabelValues(category).Add(float64(duplicates))
}

// RecordPersisted counts a record stored with the given status.
func RecordPersisted(category, status string) {
	RecordsPersistedTotal.WithLabelValues(category, status).Inc()
}

// RecordStorageError counts a failed storage operation.
func RecordStorageError(operation string) {
	StorageErrorsTotal.WithLabelValues(operation).Inc()
}

func RecordURLDuration(d time.Duration) {
	URLDuration.Observe(d.Seconds())
}

func UpdateDedupSetSize(n int) {
	DedupSetSize.Set(float64(n))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "append_record", "load_seen").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(open, idle int) {
	DBConnectionsOpen.Set(float64(open))
	DBConnectionsIdle.Set(float64(idle))
}
