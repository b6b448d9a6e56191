package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inatscraper/internal/downloader"
	"inatscraper/pkg/config"
	errs "inatscraper/pkg/errors"
	"inatscraper/pkg/inaturalist"
	"inatscraper/pkg/logger"
	"inatscraper/pkg/metadata"
	"inatscraper/pkg/ratelimit"
	"inatscraper/pkg/retry"
	"inatscraper/pkg/storage"
)

// Scraper downloads images for every configured species, one species and
// one request at a time
type Scraper struct {
	cfg        *config.Config
	fetcher    PageFetcher
	downloader ImageDownloader
	pacer      ratelimit.Limiter
	retry      *retry.Config
	reporter   Reporter
	logger     logger.Logger
}

// Option customises a Scraper
type Option func(*Scraper)

// WithReporter replaces the default log reporter
func WithReporter(r Reporter) Option {
	return func(s *Scraper) { s.reporter = r }
}

// WithPacer replaces the politeness pacer
func WithPacer(p ratelimit.Limiter) Option {
	return func(s *Scraper) { s.pacer = p }
}

// WithRetry replaces the page fetch retry policy
func WithRetry(cfg *retry.Config) Option {
	return func(s *Scraper) { s.retry = cfg }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// New assembles a scraper from its collaborators. cfg is not modified.
func New(cfg *config.Config, fetcher PageFetcher, dl ImageDownloader, opts ...Option) *Scraper {
	s := &Scraper{
		cfg:        cfg,
		fetcher:    fetcher,
		downloader: dl,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.GetLogger()
	}
	if s.pacer == nil {
		s.pacer = ratelimit.NewPacer(cfg.Download.PolitenessDelay)
	}
	if s.retry == nil {
		s.retry = retry.NewConfig(cfg.Retry, s.logger)
	}
	if s.reporter == nil {
		s.reporter = NewLogReporter(s.logger)
	}
	return s
}

// NewFromConfig wires the iNaturalist client, downloader, pacer and retry
// policy described by cfg
func NewFromConfig(cfg *config.Config, log logger.Logger, opts ...Option) *Scraper {
	client := inaturalist.NewClient(cfg.INaturalist, cfg.Download.Timeout, log)
	dl := downloader.New(client, downloader.OptionsFromConfig(cfg), log)

	base := []Option{
		WithLogger(log),
		WithPacer(ratelimit.NewPacer(cfg.Download.PolitenessDelay)),
		WithRetry(retry.NewConfig(cfg.Retry, log)),
	}
	return New(cfg, client, dl, append(base, opts...)...)
}

// Run processes every configured species in order. Failures inside one
// species are reported and the run moves on. Run only returns an error when
// the output root cannot be created or ctx is cancelled.
func (s *Scraper) Run(ctx context.Context) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{ID: uuid.NewString()}

	store, err := storage.NewManager(s.cfg.Output.BaseDirectory)
	if err != nil {
		return summary, err
	}

	s.logger.InfoWithFields("Starting scrape", map[string]interface{}{
		"run_id":     summary.ID,
		"species":    len(s.cfg.Species),
		"target":     s.cfg.Download.TargetPerSpecies,
		"output_dir": store.Root(),
	})

	for _, sp := range s.cfg.Species {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		summary.Species = append(summary.Species, s.scrapeSpeciesSafely(ctx, store, sp))
	}

	summary.Duration = time.Since(start)
	s.logger.InfoWithFields("Scrape finished", map[string]interface{}{
		"run_id":           summary.ID,
		"species":          len(summary.Species),
		"total_downloaded": summary.TotalDownloaded(),
		"failures":         summary.Failures(),
		"duration":         summary.Duration,
	})
	return summary, ctx.Err()
}

// scrapeSpeciesSafely turns a panic in one species into a failed summary
func (s *Scraper) scrapeSpeciesSafely(ctx context.Context, store *storage.Manager, sp config.Species) (sum Summary) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while scraping %s: %v", sp.Name, r)
			s.reporter.SpeciesFailed(sp, err)
			sum = Summary{
				Species:  sp,
				Target:   s.cfg.Download.TargetPerSpecies,
				Reason:   ReasonError,
				Duration: time.Since(start),
				Err:      err,
			}
		}
	}()

	dir, err := store.SpeciesDir(sp)
	if err != nil {
		s.reporter.SpeciesFailed(sp, err)
		return Summary{Species: sp, Target: s.cfg.Download.TargetPerSpecies, Reason: ReasonError, Err: err}
	}
	return s.ScrapeSpecies(ctx, sp, dir)
}

// ScrapeSpecies runs the page loop for one species into dir
func (s *Scraper) ScrapeSpecies(ctx context.Context, sp config.Species, dir *storage.SpeciesDir) Summary {
	run := &speciesRun{
		s:        s,
		sp:       sp,
		dir:      dir,
		target:   s.cfg.Download.TargetPerSpecies,
		perPage:  s.cfg.INaturalist.PerPage,
		maxPages: s.cfg.Download.MaxPages(s.cfg.INaturalist.PerPage),
	}
	return run.execute(ctx)
}

// State is a step of the per-species loop
type State int

const (
	StateFetchingPage State = iota
	StateProcessingResults
	StateDone
)

func (st State) String() string {
	switch st {
	case StateFetchingPage:
		return "FETCHING_PAGE"
	case StateProcessingResults:
		return "PROCESSING_RESULTS"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// speciesRun holds the mutable state of one species. Nothing in it outlives
// the species.
type speciesRun struct {
	s        *Scraper
	sp       config.Species
	dir      *storage.SpeciesDir
	manifest *metadata.Manifest

	target   int
	perPage  int
	maxPages int

	state   State
	page    int
	current *inaturalist.ObservationsResponse
	summary Summary
}

func (r *speciesRun) execute(ctx context.Context) Summary {
	start := time.Now()
	r.summary = Summary{Species: r.sp, Target: r.target}
	r.state = StateFetchingPage
	r.page = 1
	r.countExisting()
	r.openManifest()

	r.s.reporter.SpeciesStarted(r.sp, r.target)

	for r.state != StateDone {
		switch r.state {
		case StateFetchingPage:
			r.state = r.fetchPage(ctx)
		case StateProcessingResults:
			r.state = r.processResults(ctx)
		}
	}

	r.closeManifest()
	r.summary.Duration = time.Since(start)
	r.s.reporter.SpeciesFinished(r.summary)
	return r.summary
}

func (r *speciesRun) query() inaturalist.Query {
	q := inaturalist.Query{
		TaxonID:      r.sp.TaxonID,
		QualityGrade: r.s.cfg.INaturalist.QualityGrade,
		PerPage:      r.perPage,
		Page:         r.page,
		OrderBy:      r.s.cfg.INaturalist.OrderBy,
		Order:        r.s.cfg.INaturalist.Order,
	}
	if q.TaxonID == 0 {
		q.TaxonName = r.sp.QueryName()
	}
	return q
}

func (r *speciesRun) fetchPage(ctx context.Context) State {
	q := r.query()

	policy := *r.s.retry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		r.s.reporter.PageRetry(r.sp, q.Page, attempt, err, delay)
	}

	resp, err := retry.Do(ctx, &policy, func(ctx context.Context, attempt int) (*inaturalist.ObservationsResponse, errs.Outcome) {
		return r.s.fetcher.FetchPage(ctx, q)
	})
	if err != nil {
		return r.finish(r.failureReason(ctx, err), err)
	}

	r.summary.Pages++
	r.s.reporter.PageFetched(r.sp, r.page, len(resp.Results))

	if len(resp.Results) == 0 {
		return r.finish(ReasonExhausted, nil)
	}
	r.current = resp
	return StateProcessingResults
}

func (r *speciesRun) processResults(ctx context.Context) State {
	results := r.current.Results
	r.current = nil

	for _, obs := range results {
		for i, photo := range obs.Photos {
			if r.summary.Downloaded >= r.target {
				return r.finish(ReasonTargetReached, nil)
			}
			if photo.URL == "" {
				continue
			}

			index := i + 1
			ext := r.s.downloader.InferExtension(photo.URL)
			res := r.s.downloader.Download(ctx, photo.URL, r.dir.Path(obs.ID, index, ext))

			switch res.Status {
			case downloader.Saved:
				r.summary.Downloaded++
				r.s.reporter.ImageSaved(r.sp, res, r.summary.Downloaded, r.target)
				if r.manifest != nil {
					r.manifest.Add(metadata.FromObservation(obs, index, res.URL, storage.FileName(obs.ID, index, ext)))
				}
				if err := r.s.pacer.Wait(ctx); err != nil {
					return r.finish(ReasonCancelled, err)
				}
			case downloader.Skipped:
				r.summary.Skipped++
				r.s.reporter.ImageSkipped(r.sp, res)
			case downloader.Failed:
				if err := ctx.Err(); err != nil {
					return r.finish(ReasonCancelled, err)
				}
				r.summary.Failed++
				r.s.reporter.ImageFailed(r.sp, res)
			}
		}
	}

	if r.summary.Downloaded >= r.target {
		return r.finish(ReasonTargetReached, nil)
	}

	r.page++
	if r.page > r.maxPages {
		return r.finish(ReasonPageLimit, nil)
	}
	return StateFetchingPage
}

func (r *speciesRun) finish(reason StopReason, err error) State {
	r.summary.Reason = reason
	r.summary.Err = err
	return StateDone
}

func (r *speciesRun) failureReason(ctx context.Context, err error) StopReason {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errs.TypeOf(err) == errs.ErrorTypeCancelled {
		return ReasonCancelled
	}
	return ReasonFetchFailed
}

func (r *speciesRun) countExisting() {
	n, err := r.dir.ImageCount(r.s.cfg.Output.AllowedExtensions)
	if err != nil {
		r.s.logger.WithError(err).WithField("species", r.sp.Name).Debug("Could not count existing images")
		return
	}
	r.summary.Existing = n
	if n > 0 {
		r.s.logger.InfoWithFields("Species folder already holds images", map[string]interface{}{
			"species":  r.sp.Name,
			"existing": n,
		})
	}
}

func (r *speciesRun) openManifest() {
	if !r.s.cfg.Output.WriteManifest {
		return
	}
	m, err := metadata.Load(r.dir.Dir(), r.sp.Name)
	if err != nil {
		r.s.logger.WithError(err).WithField("species", r.sp.Name).Warn("Ignoring unreadable attribution manifest")
		return
	}
	r.manifest = m
}

func (r *speciesRun) closeManifest() {
	if r.manifest == nil {
		return
	}
	if pruned := r.manifest.Prune(); pruned > 0 {
		r.s.logger.DebugWithFields("Pruned manifest entries for missing files", map[string]interface{}{
			"species": r.sp.Name,
			"pruned":  pruned,
		})
	}
	if err := r.manifest.Save(); err != nil {
		r.s.logger.WithError(err).WithField("species", r.sp.Name).Warn("Failed to save attribution manifest")
	}
}
