package downloader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"inatscraper/pkg/config"
	errs "inatscraper/pkg/errors"
	"inatscraper/pkg/logger"
	"inatscraper/pkg/storage"
)

// Status is the result of one download
type Status int

const (
	// Saved means the image was fetched and written
	Saved Status = iota
	// Skipped means the destination already existed; nothing was requested
	Skipped
	// Failed means the fetch or the write failed
	Failed
)

func (s Status) String() string {
	switch s {
	case Saved:
		return "saved"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes one download
type Result struct {
	URL      string
	Path     string
	Status   Status
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Fetcher opens a remote resource for reading
type Fetcher interface {
	Open(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// Options controls URL rewriting, naming, and size bounds
type Options struct {
	LowResMarker      string
	FullResMarker     string
	AllowedExtensions []string
	DefaultExtension  string
	Limits            storage.Limits
}

// OptionsFromConfig extracts downloader options from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LowResMarker:      cfg.Download.LowResMarker,
		FullResMarker:     cfg.Download.FullResMarker,
		AllowedExtensions: cfg.Output.AllowedExtensions,
		DefaultExtension:  cfg.Output.DefaultExtension,
		Limits: storage.Limits{
			MinBytes: cfg.Download.MinFileSize,
			MaxBytes: cfg.Download.MaxFileSize,
		},
	}
}

// Downloader fetches single images and writes them to disk, one at a time
type Downloader struct {
	fetcher Fetcher
	opts    Options
	logger  logger.Logger
}

// New creates a downloader
func New(fetcher Fetcher, opts Options, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.DefaultExtension == "" {
		opts.DefaultExtension = "jpg"
	}
	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = []string{"jpg", "jpeg", "png"}
	}
	return &Downloader{fetcher: fetcher, opts: opts, logger: log}
}

// NormalizeURL rewrites a photo URL to its full-resolution variant
func (d *Downloader) NormalizeURL(raw string) string {
	return NormalizeURL(raw, d.opts.LowResMarker, d.opts.FullResMarker)
}

// InferExtension picks the file extension for a photo URL
func (d *Downloader) InferExtension(raw string) string {
	return InferExtension(raw, d.opts.AllowedExtensions, d.opts.DefaultExtension)
}

// Download fetches the full-resolution variant of rawURL into dest. It never
// returns an error directly: failures are carried in the Result.
func (d *Downloader) Download(ctx context.Context, rawURL, dest string) Result {
	start := time.Now()
	target := d.NormalizeURL(rawURL)
	result := Result{URL: target, Path: dest}

	if storage.Exists(dest) {
		result.Status = Skipped
		result.Duration = time.Since(start)
		return result
	}

	body, _, err := d.fetcher.Open(ctx, target)
	if err != nil {
		return d.fail(result, start, err)
	}
	defer body.Close()

	n, err := storage.WriteAtomic(dest, body, d.opts.Limits)
	result.Bytes = n
	if err != nil {
		return d.fail(result, start, fmt.Errorf("save %s: %w", dest, err))
	}

	result.Status = Saved
	result.Duration = time.Since(start)
	d.logger.DebugWithFields("image downloaded", map[string]interface{}{
		"url":      target,
		"path":     dest,
		"bytes":    n,
		"duration": result.Duration,
	})
	return result
}

func (d *Downloader) fail(result Result, start time.Time, err error) Result {
	result.Status = Failed
	result.Err = err
	result.Duration = time.Since(start)
	d.logger.WarnWithFields("image download failed", map[string]interface{}{
		"url":        result.URL,
		"path":       result.Path,
		"error":      err.Error(),
		"error_type": string(errs.TypeOf(err)),
	})
	return result
}

// NormalizeURL replaces every occurrence of lowMarker with fullMarker.
// An empty lowMarker leaves the URL unchanged.
func NormalizeURL(raw, lowMarker, fullMarker string) string {
	if lowMarker == "" {
		return raw
	}
	return strings.ReplaceAll(raw, lowMarker, fullMarker)
}

// InferExtension returns the lower-cased extension of the URL path's last
// segment when it is in allowed, and fallback otherwise. Query strings and
// fragments are ignored.
func InferExtension(raw string, allowed []string, fallback string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return ext
		}
	}
	return fallback
}
