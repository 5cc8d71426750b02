// Package locator classifies user-supplied links.
//
// Matching is substring based and deliberately permissive: a token containing
// "spotify.com/track" anywhere (inside a query parameter, a longer path, a redirect URL) is a
// catalog track link. Nothing is validated against a URL grammar.
package locator

import (
	"strings"

	"github.com/desertthunder/tunegrab/internal/models"
)

// VideoHosts are the substrings that mark a video-hosting link.
var VideoHosts = []string{"youtube.com", "youtu.be"}

const (
	catalogMarker = "spotify.com/track"
	trackSegment  = "/track/"
	idDelimiters  = "/?#&"
)

// Classify inspects a single token. Video markers are checked before the catalog marker.
func Classify(text string) models.Locator {
	raw := strings.TrimSpace(text)

	if IsVideo(raw) {
		return models.Locator{Kind: models.Video, URL: raw, Raw: text}
	}

	if strings.Contains(raw, catalogMarker) {
		return models.Locator{
			Kind:    models.CatalogTrack,
			URL:     raw,
			TrackID: TrackID(raw),
			Raw:     text,
		}
	}

	return models.Locator{Kind: models.Unrecognized, Raw: text}
}

// Scan walks text word by word and classifies the first token carrying a recognized
// marker; the first match wins.
func Scan(text string) models.Locator {
	for _, word := range strings.Fields(text) {
		if loc := Classify(word); loc.Kind != models.Unrecognized {
			return loc
		}
	}
	return models.Locator{Kind: models.Unrecognized, Raw: text}
}

// IsVideo reports whether s contains a video host marker.
func IsVideo(s string) bool {
	for _, host := range VideoHosts {
		if strings.Contains(s, host) {
			return true
		}
	}
	return false
}

// TrackID returns the identifier between "/track/" and the next path, query or fragment
// delimiter. It returns "" when the segment is missing or empty.
func TrackID(url string) string {
	_, rest, found := strings.Cut(url, trackSegment)
	if !found {
		return ""
	}
	if i := strings.IndexAny(rest, idDelimiters); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
