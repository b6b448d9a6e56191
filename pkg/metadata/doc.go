// Package metadata keeps an attribution manifest next to downloaded images.
//
// Most iNaturalist photos are under Creative Commons licenses that require
// credit. Each species folder gets a sibling <folder>.attributions.json
// listing, per file, the observation, photo id, license code and attribution
// string returned by the API. Keeping it outside the folder leaves the folder
// holding nothing but images.
package metadata
