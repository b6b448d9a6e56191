package scraper

import (
	"time"

	"inatscraper/pkg/config"
)

// StopReason says why a species run reached DONE
type StopReason string

const (
	ReasonTargetReached StopReason = "target_reached"
	ReasonExhausted     StopReason = "exhausted"
	ReasonFetchFailed   StopReason = "fetch_failed"
	ReasonPageLimit     StopReason = "page_limit"
	ReasonCancelled     StopReason = "cancelled"
	ReasonError         StopReason = "error"
)

// Summary is the outcome of one species
type Summary struct {
	Species    config.Species
	Target     int
	// Existing is how many images the folder held before the run
	Existing   int
	Downloaded int
	Skipped    int
	Failed     int
	Pages      int
	Reason     StopReason
	Duration   time.Duration
	Err        error
}

// RunSummary collects the per-species summaries of a run
type RunSummary struct {
	// ID tags every log line of the run
	ID       string
	Species  []Summary
	Duration time.Duration
}

// TotalDownloaded sums images saved across all species
func (r *RunSummary) TotalDownloaded() int {
	total := 0
	for _, s := range r.Species {
		total += s.Downloaded
	}
	return total
}

// Failures counts species that ended on an error
func (r *RunSummary) Failures() int {
	n := 0
	for _, s := range r.Species {
		if s.Err != nil {
			n++
		}
	}
	return n
}
