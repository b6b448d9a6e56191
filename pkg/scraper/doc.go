// Package scraper drives the per-species fetch and download loop.
//
// Each species runs through a small state machine:
//
//	FETCHING_PAGE -> PROCESSING_RESULTS -> FETCHING_PAGE | DONE
//
// A page fetch is retried with exponential backoff (see package retry). An
// empty page, a fetch that fails for good, reaching the download target, or
// passing the page ceiling ends the species. The ceiling is
// ceil(target / per_page) * page_slack.
//
// Species are processed strictly one after another and photos one at a time,
// with a politeness pause after every saved image. Anything that happens
// along the way is published to a Reporter, so the loop itself does no
// printing:
//
//	s := scraper.NewFromConfig(cfg, log,
//	    scraper.WithReporter(scraper.MultiReporter{
//	        scraper.NewLogReporter(log),
//	        ui.NewProgressDisplay(os.Stdout, false),
//	    }))
//	summary, err := s.Run(ctx)
//
// A failure or panic inside one species is recorded in its Summary and the
// run continues with the next one.
package scraper
