// Package downloader fetches individual observation photos.
//
// A Downloader rewrites the thumbnail URL the API returns into the
// full-resolution one, skips destinations that already exist, and streams the
// body to disk through storage.WriteAtomic. Failures come back in the Result
// rather than as errors so the caller can log them and move on.
package downloader
