package scraper

import (
	"context"

	"inatscraper/internal/downloader"
	errs "inatscraper/pkg/errors"
	"inatscraper/pkg/inaturalist"
)

// PageFetcher fetches one page of observations and classifies the attempt
type PageFetcher interface {
	FetchPage(ctx context.Context, q inaturalist.Query) (*inaturalist.ObservationsResponse, errs.Outcome)
}

// ImageDownloader saves a single photo
type ImageDownloader interface {
	Download(ctx context.Context, rawURL, dest string) downloader.Result
	InferExtension(rawURL string) string
}
