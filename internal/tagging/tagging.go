// Package tagging writes ID3 metadata onto downloaded audio.
//
// Enrichment is best effort. [Enricher.Enrich] reports problems through [Result] and never returns
// an error, so a caller cannot accidentally abort delivery over a tag failure.
package tagging

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bogem/id3v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/services"
	"github.com/desertthunder/tunegrab/internal/shared"
)

// Result describes what enrichment achieved.
type Result struct {
	Tagged bool  // tag block persisted
	Cover  bool  // front cover embedded
	Err    error // first problem encountered, wrapped with [shared.ErrTagWrite]
}

// Enricher writes text frames and front-cover art.
type Enricher struct {
	covers       services.CoverFetcher
	coverTimeout time.Duration
	maxCoverSize int
	logger       *log.Logger
}

// NewEnricher creates an Enricher. A nil covers disables cover embedding.
func NewEnricher(covers services.CoverFetcher, coverTimeout time.Duration, maxCoverSize int, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Enricher{
		covers:       covers,
		coverTimeout: coverTimeout,
		maxCoverSize: maxCoverSize,
		logger:       logger,
	}
}

// Enrich tags the artifact with md. Failures are logged at warn level and folded into the Result.
func (e *Enricher) Enrich(ctx context.Context, artifact *models.Artifact, md models.TrackMetadata) Result {
	var res Result

	tag, err := id3v2.Open(artifact.Path, id3v2.Options{Parse: true})
	if err != nil {
		res.Err = fmt.Errorf("%w: open %s: %v", shared.ErrTagWrite, artifact.Path, err)
		e.logger.Warn("skipping tags", "path", artifact.Path, "error", err)
		return res
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	writeText(tag, md)

	if md.CoverURL != "" && e.covers != nil {
		data, mime, err := e.fetchCover(ctx, md.CoverURL)
		switch {
		case err != nil:
			res.Err = fmt.Errorf("%w: cover: %v", shared.ErrTagWrite, err)
			e.logger.Warn("cover fetch failed, tagging without art", "url", md.CoverURL, "error", err)
		case data == nil:
			e.logger.Debug("no cover available", "url", md.CoverURL)
		default:
			tag.DeleteFrames(tag.CommonID("Attached picture"))
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    mime,
				PictureType: id3v2.PTFrontCover,
				Description: "Cover",
				Picture:     data,
			})
			res.Cover = true
		}
	}

	if err := tag.Save(); err != nil {
		res.Cover = false
		res.Err = fmt.Errorf("%w: save %s: %v", shared.ErrTagWrite, artifact.Path, err)
		e.logger.Warn("failed to save tags", "path", artifact.Path, "error", err)
		return res
	}

	res.Tagged = true
	return res
}

func (e *Enricher) fetchCover(ctx context.Context, url string) ([]byte, string, error) {
	if e.coverTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.coverTimeout)
		defer cancel()
	}

	data, err := e.covers.Fetch(ctx, url)
	if err != nil || len(data) == 0 {
		return nil, "", err
	}
	data, mime := services.Normalize(data, e.maxCoverSize)
	return data, mime, nil
}

func writeText(tag *id3v2.Tag, md models.TrackMetadata) {
	tag.SetTitle(md.Title)
	tag.SetArtist(md.Artist)
	tag.SetAlbum(md.Album)

	albumArtist := md.AlbumArtist
	if albumArtist == "" {
		albumArtist = md.Artist
	}
	tag.DeleteFrames("TPE2")
	tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, albumArtist)

	if md.HasYear() {
		tag.SetYear(strconv.Itoa(md.Year))
	}

	trackNumber := md.TrackNumber
	if trackNumber <= 0 {
		trackNumber = 1
	}
	trck := tag.CommonID("Track number/Position in set")
	tag.DeleteFrames(trck)
	tag.AddTextFrame(trck, id3v2.EncodingUTF8, strconv.Itoa(trackNumber))
}
