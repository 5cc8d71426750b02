package models

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// LocatorKind tags the variant held by a [Locator].
type LocatorKind int

const (
	Unrecognized LocatorKind = iota
	Video
	CatalogTrack
)

func (k LocatorKind) String() string {
	switch k {
	case Video:
		return "video"
	case CatalogTrack:
		return "catalog_track"
	default:
		return "unrecognized"
	}
}

// Locator is a classified piece of user input.
//
// URL is set for Video and CatalogTrack, TrackID only for CatalogTrack (and may be empty when
// the link has a track marker but no identifier), Raw always holds the original text.
type Locator struct {
	Kind    LocatorKind
	URL     string
	TrackID string
	Raw     string
}

// TrackMetadata is the normalized catalog record for one track.
type TrackMetadata struct {
	Title       string
	Artist      string // comma-joined display string
	Album       string
	AlbumArtist string // comma-joined display string
	ReleaseDate string
	Year        int // 0 when the release date carries no delimiter
	TrackNumber int
	CoverURL    string // empty when the catalog has no images
	DurationMS  int
}

// HasYear reports whether a release year was extracted.
func (m TrackMetadata) HasYear() bool { return m.Year > 0 }

// Candidate is the playable locator selected for retrieval.
//
// Title is empty for direct video links until retrieval resolves it.
type Candidate struct {
	URL   string
	Title string
}

// Artifact is a transcoded audio file in a request-scoped scratch directory.
type Artifact struct {
	Path      string
	Dir       string
	Format    string
	Bitrate   string
	Title     string
	Performer string
	Duration  int // seconds, 0 when unknown

	removed bool
}

// Remove deletes the artifact file. Repeat calls are no-ops.
func (a *Artifact) Remove() error {
	if a == nil || a.removed {
		return nil
	}
	a.removed = true
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Removed reports whether [Artifact.Remove] has run.
func (a *Artifact) Removed() bool { return a != nil && a.removed }

// State is a pipeline state.
type State int

const (
	Received State = iota
	Classified
	MetadataResolved
	Searched
	Retrieved
	Tagged
	Delivered
	Failed
	Rejected // unrecognized input answered with a usage hint; never enters the pipeline
)

func (s State) String() string {
	switch s {
	case Received:
		return "received"
	case Classified:
		return "classified"
	case MetadataResolved:
		return "metadata_resolved"
	case Searched:
		return "searched"
	case Retrieved:
		return "retrieved"
	case Tagged:
		return "tagged"
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can follow s.
func (s State) Terminal() bool {
	return s == Delivered || s == Failed || s == Rejected
}

// RequestRecord summarizes a finished request for the history table.
type RequestRecord struct {
	ID         string
	ChatID     int64
	Kind       LocatorKind
	Locator    string
	State      State
	Title      string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Validate checks the record can be persisted.
func (r RequestRecord) Validate() error {
	if r.ID == "" {
		return errors.New("request id is required")
	}
	if !r.State.Terminal() {
		return errors.New("request state must be terminal")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return errors.New("finished_at precedes started_at")
	}
	return nil
}

// MessageRef addresses a sent chat message so it can be edited later.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// IsZero reports whether the ref points at no message.
func (r MessageRef) IsZero() bool { return r.MessageID == 0 }

// ParseLocatorKind is the inverse of [LocatorKind.String]. Unknown names map to Unrecognized.
func ParseLocatorKind(s string) LocatorKind {
	switch s {
	case "video":
		return Video
	case "catalog_track":
		return CatalogTrack
	default:
		return Unrecognized
	}
}

// ParseState is the inverse of [State.String].
func ParseState(s string) (State, error) {
	for st := Received; st <= Rejected; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return Failed, fmt.Errorf("unknown state %q", s)
}
