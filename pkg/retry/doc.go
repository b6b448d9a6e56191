// Package retry repeats an operation with exponential backoff.
//
// Each attempt returns an errs.Outcome. Success ends the loop with the
// result, Permanent ends it with the attempt's error, and Transient schedules
// another attempt after Backoff.NextDelay(attempt), until MaxAttempts attempts
// have been made.
//
//	page, err := retry.Do(ctx, retry.NewConfig(cfg.Retry, log),
//		func(ctx context.Context, attempt int) (*inaturalist.ObservationsResponse, errs.Outcome) {
//			resp, err := client.FetchObservations(ctx, query)
//			return resp, errs.Classify(err)
//		})
//
// Config.Sleep is injectable so tests can record delays instead of waiting.
package retry
