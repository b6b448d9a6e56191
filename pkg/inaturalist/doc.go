// Package inaturalist is a small client for the iNaturalist v1 API.
//
// It covers GET /observations and GET /users/me, plus
// plain GETs against the photo host for downloading images:
//
//	client := inaturalist.NewClient(cfg.INaturalist, 30*time.Second, log)
//	page, err := client.FetchObservations(ctx, inaturalist.Query{
//	    TaxonName:    "Python molurus",
//	    QualityGrade: "research",
//	    PerPage:      30,
//	    Page:         1,
//	})
//
// Errors are *errors.Error values from inatscraper/pkg/errors. Any non-2xx
// status, transport failure or undecodable body is classified as transient.
// Cancellation and requests that cannot be built are permanent.
package inaturalist
