// Package fetcher downloads remote files over HTTP.
package fetcher

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when the remote server answers 404. Daily reports
// that were never published surface as this error.
var ErrNotFound = errors.New("fetcher: not found")

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	// The destination is replaced atomically; a failed download leaves any
	// previous file untouched.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
