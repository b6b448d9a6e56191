// Package ratelimit paces outbound traffic to the iNaturalist servers.
//
// The scraper waits on a Pacer after every image it saves so that a long
// run stays a polite, steady trickle of requests:
//
//	pacer := ratelimit.NewPacer(cfg.Download.PolitenessDelay)
//	if err := pacer.Wait(ctx); err != nil {
//	    return err // cancelled
//	}
package ratelimit
