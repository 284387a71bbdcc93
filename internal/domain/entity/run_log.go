package entity

import "time"

// RunLogEntry summarises one category within one crawl cycle.
type RunLogEntry struct {
	CycleID         string
	CycleStart      time.Time
	Category        string
	CandidatesFound int
	Duplicates      int
	NewProcessed    int
	Failures        int
	OverviewError   string
}
