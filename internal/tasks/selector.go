package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/shared"
)

// SearchQuery is the phrase used to find audio for a catalog track.
func SearchQuery(md models.TrackMetadata) string {
	return fmt.Sprintf("%s %s audio", md.Title, md.Artist)
}

// Select picks the locator to retrieve. Video links pass through untouched; catalog tracks take
// the first search result as ranked by the engine.
func (p *Pipeline) Select(ctx context.Context, loc models.Locator, md *models.TrackMetadata) (models.Candidate, error) {
	switch {
	case loc.Kind == models.Video:
		return models.Candidate{URL: loc.URL}, nil
	case md == nil:
		return models.Candidate{}, fmt.Errorf("%w: no metadata to search with", shared.ErrNoCandidateFound)
	}

	ctx, cancel := withTimeout(ctx, p.opts.SearchTimeout)
	defer cancel()

	query := SearchQuery(*md)
	results, err := p.extractor.Search(ctx, query, 1)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("%w: search: %w", shared.ErrRetrieval, timedOut(ctx, err))
	}
	if len(results) == 0 {
		return models.Candidate{}, fmt.Errorf("%w: %q", shared.ErrNoCandidateFound, query)
	}

	top := results[0]
	return models.Candidate{URL: top.WebpageURL, Title: top.Title}, nil
}
