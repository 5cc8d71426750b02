package locator

import (
	"testing"

	"github.com/desertthunder/tunegrab/internal/models"
)

func TestClassify(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		kind    models.LocatorKind
		trackID string
	}{
		{name: "short video link", input: "https://youtu.be/abc123", kind: models.Video},
		{name: "watch link", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", kind: models.Video},
		{name: "music subdomain", input: "https://music.youtube.com/watch?v=x", kind: models.Video},
		{name: "no scheme", input: "youtu.be/xyz", kind: models.Video},
		{name: "catalog track", input: "https://open.spotify.com/track/XYZ", kind: models.CatalogTrack, trackID: "XYZ"},
		{name: "catalog track with query", input: "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc", kind: models.CatalogTrack, trackID: "4uLU6hMCjMI75M1A2tKUQC"},
		{name: "catalog marker without id", input: "https://open.spotify.com/tracks", kind: models.CatalogTrack, trackID: ""},
		{name: "catalog marker inside query", input: "https://example.com/?next=open.spotify.com/track/ID1", kind: models.CatalogTrack, trackID: "ID1"},
		{name: "catalog album", input: "https://open.spotify.com/album/123", kind: models.Unrecognized},
		{name: "plain text", input: "hello there", kind: models.Unrecognized},
		{name: "empty", input: "", kind: models.Unrecognized},
		{name: "other host", input: "https://vimeo.com/12345", kind: models.Unrecognized},
		{name: "video wins over catalog", input: "https://youtube.com/redirect?q=spotify.com/track/1", kind: models.Video},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			loc := Classify(tt.input)
			if loc.Kind != tt.kind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.input, loc.Kind, tt.kind)
			}
			if loc.TrackID != tt.trackID {
				t.Errorf("Classify(%q).TrackID = %q, want %q", tt.input, loc.TrackID, tt.trackID)
			}
			if loc.Raw != tt.input {
				t.Errorf("expected raw text to be kept, got %q", loc.Raw)
			}
			if tt.kind != models.Unrecognized && loc.URL == "" {
				t.Error("expected URL to be set for recognized input")
			}
		})
	}
}

func TestTrackID(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		base := "https://open.spotify.com"
		for _, id := range []string{"XYZ", "4uLU6hMCjMI75M1A2tKUQC", "a1", "0"} {
			url := base + "/track/" + id + "?extra"
			if got := TrackID(url); got != id {
				t.Errorf("TrackID(%q) = %q, want %q", url, got, id)
			}
			if got := TrackID(base + "/track/" + TrackID(url) + "?extra"); got != id {
				t.Errorf("extraction is not idempotent for %q: %q", id, got)
			}
		}
	})

	tc := []struct {
		name string
		url  string
		want string
	}{
		{name: "trailing slash", url: "https://open.spotify.com/track/abc/", want: "abc"},
		{name: "fragment", url: "https://open.spotify.com/track/abc#x", want: "abc"},
		{name: "no segment", url: "https://open.spotify.com/album/abc", want: ""},
		{name: "empty id", url: "https://open.spotify.com/track/?si=1", want: ""},
		{name: "nothing after marker", url: "https://open.spotify.com/track/", want: ""},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrackID(tt.url); got != tt.want {
				t.Errorf("TrackID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestScan(t *testing.T) {
	tc := []struct {
		name string
		text string
		kind models.LocatorKind
		url  string
	}{
		{name: "video in sentence", text: "check this https://youtu.be/abc out", kind: models.Video, url: "https://youtu.be/abc"},
		{name: "catalog in sentence", text: "song: https://open.spotify.com/track/ID9?si=2 thanks", kind: models.CatalogTrack, url: "https://open.spotify.com/track/ID9?si=2"},
		{name: "first match wins", text: "https://open.spotify.com/track/A https://youtu.be/B", kind: models.CatalogTrack, url: "https://open.spotify.com/track/A"},
		{name: "video first", text: "https://youtu.be/B https://open.spotify.com/track/A", kind: models.Video, url: "https://youtu.be/B"},
		{name: "no link", text: "just chatting", kind: models.Unrecognized},
		{name: "blank", text: "   ", kind: models.Unrecognized},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			loc := Scan(tt.text)
			if loc.Kind != tt.kind {
				t.Fatalf("Scan(%q).Kind = %v, want %v", tt.text, loc.Kind, tt.kind)
			}
			if loc.URL != tt.url {
				t.Errorf("Scan(%q).URL = %q, want %q", tt.text, loc.URL, tt.url)
			}
		})
	}
}
