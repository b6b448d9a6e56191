package scraper

import (
	"time"

	"inatscraper/internal/downloader"
	"inatscraper/pkg/config"
	"inatscraper/pkg/logger"
)

// Reporter observes a scrape run. Every side effect the loop has besides
// fetching and writing files goes through it.
type Reporter interface {
	SpeciesStarted(sp config.Species, target int)
	PageFetched(sp config.Species, page, results int)
	PageRetry(sp config.Species, page, attempt int, err error, delay time.Duration)
	ImageSaved(sp config.Species, res downloader.Result, saved, target int)
	ImageSkipped(sp config.Species, res downloader.Result)
	ImageFailed(sp config.Species, res downloader.Result)
	SpeciesFinished(summary Summary)
	SpeciesFailed(sp config.Species, err error)
}

// LogReporter writes run events to a structured logger
type LogReporter struct {
	log logger.Logger
}

// NewLogReporter creates a reporter backed by log
func NewLogReporter(log logger.Logger) *LogReporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LogReporter{log: log}
}

func (r *LogReporter) SpeciesStarted(sp config.Species, target int) {
	r.log.InfoWithFields("Starting species", map[string]interface{}{
		"species":  sp.Name,
		"taxon_id": sp.TaxonID,
		"target":   target,
	})
}

func (r *LogReporter) PageFetched(sp config.Species, page, results int) {
	r.log.InfoWithFields("Fetched observations page", map[string]interface{}{
		"species": sp.Name,
		"page":    page,
		"results": results,
	})
}

func (r *LogReporter) PageRetry(sp config.Species, page, attempt int, err error, delay time.Duration) {
	r.log.WithError(err).WarnWithFields("Page fetch failed, retrying", map[string]interface{}{
		"species": sp.Name,
		"page":    page,
		"attempt": attempt,
		"delay":   delay,
	})
}

func (r *LogReporter) ImageSaved(sp config.Species, res downloader.Result, saved, target int) {
	logger.LogDownload(r.log.WithFields(map[string]interface{}{
		"count":  saved,
		"target": target,
		"bytes":  res.Bytes,
	}), sp.Name, res.Path, true, nil)
}

func (r *LogReporter) ImageSkipped(sp config.Species, res downloader.Result) {
	logger.LogDownload(r.log, sp.Name, res.Path, false, nil)
}

func (r *LogReporter) ImageFailed(sp config.Species, res downloader.Result) {
	logger.LogDownload(r.log.WithField("url", res.URL), sp.Name, res.Path, false, res.Err)
}

func (r *LogReporter) SpeciesFinished(s Summary) {
	entry := r.log
	if s.Err != nil {
		entry = entry.WithError(s.Err)
	}
	logger.LogSpeciesSummary(entry, s.Species.Name, s.Downloaded, s.Target, s.Pages, string(s.Reason))
}

func (r *LogReporter) SpeciesFailed(sp config.Species, err error) {
	r.log.WithError(err).WithField("species", sp.Name).Error("Species aborted")
}

// MultiReporter fans every event out to several reporters in order
type MultiReporter []Reporter

func (m MultiReporter) SpeciesStarted(sp config.Species, target int) {
	for _, r := range m {
		r.SpeciesStarted(sp, target)
	}
}

func (m MultiReporter) PageFetched(sp config.Species, page, results int) {
	for _, r := range m {
		r.PageFetched(sp, page, results)
	}
}

func (m MultiReporter) PageRetry(sp config.Species, page, attempt int, err error, delay time.Duration) {
	for _, r := range m {
		r.PageRetry(sp, page, attempt, err, delay)
	}
}

func (m MultiReporter) ImageSaved(sp config.Species, res downloader.Result, saved, target int) {
	for _, r := range m {
		r.ImageSaved(sp, res, saved, target)
	}
}

func (m MultiReporter) ImageSkipped(sp config.Species, res downloader.Result) {
	for _, r := range m {
		r.ImageSkipped(sp, res)
	}
}

func (m MultiReporter) ImageFailed(sp config.Species, res downloader.Result) {
	for _, r := range m {
		r.ImageFailed(sp, res)
	}
}

func (m MultiReporter) SpeciesFinished(s Summary) {
	for _, r := range m {
		r.SpeciesFinished(s)
	}
}

func (m MultiReporter) SpeciesFailed(sp config.Species, err error) {
	for _, r := range m {
		r.SpeciesFailed(sp, err)
	}
}
