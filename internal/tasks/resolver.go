package tasks

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/services"
	"github.com/desertthunder/tunegrab/internal/shared"
)

// Resolve looks up a catalog track once and normalizes it. Any failure, including a link with no
// track id, is reported as [shared.ErrMetadataFetch].
func (p *Pipeline) Resolve(ctx context.Context, loc models.Locator) (models.TrackMetadata, error) {
	if loc.Kind != models.CatalogTrack {
		return models.TrackMetadata{}, fmt.Errorf("%w: %s is not a catalog track link", shared.ErrMetadataFetch, loc.Raw)
	}
	if loc.TrackID == "" {
		return models.TrackMetadata{}, fmt.Errorf("%w: no track id in %s", shared.ErrMetadataFetch, loc.URL)
	}
	if p.catalog == nil {
		return models.TrackMetadata{}, fmt.Errorf("%w: %v", shared.ErrMetadataFetch, shared.ErrServiceUnavailable)
	}

	ctx, cancel := withTimeout(ctx, p.opts.MetadataTimeout)
	defer cancel()

	track, err := p.catalog.Track(ctx, loc.TrackID)
	if err != nil {
		return models.TrackMetadata{}, fmt.Errorf("%w: %w", shared.ErrMetadataFetch, timedOut(ctx, err))
	}
	if track == nil {
		return models.TrackMetadata{}, fmt.Errorf("%w: empty response for %s", shared.ErrMetadataFetch, loc.TrackID)
	}
	return NormalizeTrack(track), nil
}

// NormalizeTrack maps a catalog record to [models.TrackMetadata].
func NormalizeTrack(t *services.SpotifyTrack) models.TrackMetadata {
	trackNumber := t.TrackNumber
	if trackNumber <= 0 {
		trackNumber = 1
	}
	return models.TrackMetadata{
		Title:       t.Name,
		Artist:      shared.JoinNames(t.ArtistNames()),
		Album:       t.Album.Name,
		AlbumArtist: shared.JoinNames(t.AlbumArtistNames()),
		ReleaseDate: t.Album.ReleaseDate,
		Year:        ParseYear(t.Album.ReleaseDate),
		TrackNumber: trackNumber,
		CoverURL:    BestImage(t.Album.Images),
		DurationMS:  t.DurationMS,
	}
}

// ParseYear returns the leading year of a dash-delimited date, or 0 ("2021" alone yields 0).
func ParseYear(date string) int {
	head, _, found := strings.Cut(strings.TrimSpace(date), "-")
	if !found {
		return 0
	}
	year, err := strconv.Atoi(head)
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// BestImage picks the URL of the largest image by area. Ties keep the earlier entry.
func BestImage(images []services.SpotifyImage) string {
	best, bestArea := "", -1
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		if area := img.Width * img.Height; area > bestArea {
			best, bestArea = img.URL, area
		}
	}
	return best
}

// InfoCaption renders the track card shown before the download starts.
func InfoCaption(md models.TrackMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎵 <b>%s</b>\n", html.EscapeString(md.Title))
	fmt.Fprintf(&b, "👤 Artist: %s\n", html.EscapeString(md.Artist))
	fmt.Fprintf(&b, "💿 Album: %s\n", html.EscapeString(md.Album))
	fmt.Fprintf(&b, "📅 Release Date: %s\n", html.EscapeString(md.ReleaseDate))
	fmt.Fprintf(&b, "⏱️ Duration: %s\n\n", shared.FormatDuration(md.DurationMS))
	b.WriteString("Downloading this track with ID3 tags...")
	return b.String()
}
