package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"inatscraper/internal/downloader"
	"inatscraper/pkg/config"
	"inatscraper/pkg/scraper"
)

// ProgressDisplay draws a one-line progress bar per species. In verbose
// mode it prints one line per image instead.
type ProgressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool

	species string
	target  int
	saved   int
	skipped int
	failed  int
	page    int
	bytes   int64
	start   time.Time
}

var _ scraper.Reporter = (*ProgressDisplay)(nil)

// NewProgressDisplay creates a display writing to out
func NewProgressDisplay(out io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{out: out, verbose: verbose}
}

func (p *ProgressDisplay) SpeciesStarted(sp config.Species, target int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.species = sp.Name
	p.target = target
	p.saved, p.skipped, p.failed, p.page = 0, 0, 0, 0
	p.bytes = 0
	p.start = time.Now()

	fmt.Fprintf(p.out, "\n%s %s\n", Magenta("►"), Cyan(sp.String()))
}

func (p *ProgressDisplay) PageFetched(sp config.Species, page, results int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.page = page
	if p.verbose {
		fmt.Fprintf(p.out, "%s page %d • %d observations\n", Magenta("→"), page, results)
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) PageRetry(sp config.Species, page, attempt int, err error, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n%s page %d attempt %d failed (%v), retrying in %s\n",
		Yellow("⚠"), page, attempt, err, formatDuration(delay))
}

func (p *ProgressDisplay) ImageSaved(sp config.Species, res downloader.Result, saved, target int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.saved = saved
	p.bytes += res.Bytes
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s • %s\n", Green("✓"), filepath.Base(res.Path), formatBytes(res.Bytes))
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) ImageSkipped(sp config.Species, res downloader.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s already on disk\n", Dim("•"), filepath.Base(res.Path))
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) ImageFailed(sp config.Species, res downloader.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed++
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s • %v\n", Red("✗"), filepath.Base(res.Path), res.Err)
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) SpeciesFinished(s scraper.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mark := Green("✓")
	if s.Err != nil {
		mark = Yellow("!")
	}
	fmt.Fprintf(p.out, "\n%s %s: %d/%d images • %d pages • %s • %s\n",
		mark, s.Species.Name, s.Downloaded, s.Target, s.Pages,
		formatDuration(s.Duration), describeReason(s.Reason))

	if s.Skipped > 0 || s.Failed > 0 {
		fmt.Fprintf(p.out, "  %s %d already present, %d failed\n", Dim("•"), s.Skipped, s.Failed)
	}
}

func (p *ProgressDisplay) SpeciesFailed(sp config.Species, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n%s %s: %v\n", Red("✗"), sp.Name, err)
}

// RunComplete prints the closing summary of a run as a table
func (p *ProgressDisplay) RunComplete(run *scraper.RunSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n%s Downloaded %d images for %d species in %s\n",
		Green("✓"), run.TotalDownloaded(), len(run.Species), formatDuration(run.Duration))
	if len(run.Species) > 0 {
		fmt.Fprintln(p.out, summaryTable(run.Species))
	}
	if n := run.Failures(); n > 0 {
		fmt.Fprintf(p.out, "  %s %d species ended early on errors, see the log\n", Yellow("•"), n)
	}
}

// printProgress redraws the current line; callers hold mu
func (p *ProgressDisplay) printProgress() {
	line := fmt.Sprintf("%s [%s] %d/%d • page %d • %s",
		Cyan(p.species),
		progressBar(p.saved, p.target),
		p.saved,
		p.target,
		p.page,
		formatBytes(p.bytes),
	)
	if p.skipped > 0 {
		line += fmt.Sprintf(" • %d skipped", p.skipped)
	}
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", p.failed))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

func describeReason(r scraper.StopReason) string {
	switch r {
	case scraper.ReasonTargetReached:
		return "target reached"
	case scraper.ReasonExhausted:
		return "no more observations"
	case scraper.ReasonFetchFailed:
		return "API unavailable"
	case scraper.ReasonPageLimit:
		return "page limit reached"
	case scraper.ReasonCancelled:
		return "cancelled"
	default:
		return string(r)
	}
}
