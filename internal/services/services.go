// package services defines the collaborator interfaces consumed by the acquisition pipeline
//
// Spotify (catalog), yt-dlp (extraction), plain HTTP (cover art)
package services

import (
	"context"
)

// CatalogProvider looks up catalog track records.
type CatalogProvider interface {
	// Track returns the catalog record for trackID. One attempt, no retry.
	Track(ctx context.Context, trackID string) (*SpotifyTrack, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Extractor searches for and retrieves playable media.
type Extractor interface {
	// Search returns at most limit results in the engine's own relevance order.
	// An empty slice with a nil error means nothing matched.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// Download fetches url and transcodes it to audio at opts.Dir/opts.Name.<format>.
	Download(ctx context.Context, url string, opts DownloadOptions) (*DownloadResult, error)
}

// CoverFetcher retrieves cover image bytes.
type CoverFetcher interface {
	// Fetch returns the image bytes, or nil with a nil error when the server answers with
	// anything other than 200.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SearchResult is one ranked entry of an extractor search.
type SearchResult struct {
	Title      string
	WebpageURL string
	Duration   int // seconds
}

// DownloadOptions describes where and how to write the transcoded audio.
type DownloadOptions struct {
	Dir          string
	Name         string // file name without extension
	AudioFormat  string // e.g. "mp3"
	AudioQuality string // e.g. "192"
}

// DownloadResult describes a completed retrieval.
type DownloadResult struct {
	Title      string
	WebpageURL string
	Path       string
	Duration   int // seconds
}
