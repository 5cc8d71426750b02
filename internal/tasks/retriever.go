package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/services"
	"github.com/desertthunder/tunegrab/internal/shared"
)

const unknownTitle = "Unknown Title"

// Retrieve downloads candidate into WorkDir/<request id>/<request id>.<format>.
//
// The path never depends on the media title, so concurrent requests for the same track cannot
// collide. One attempt; failures are [shared.ErrRetrieval] carrying the engine's message.
func (p *Pipeline) Retrieve(ctx context.Context, req Request, candidate models.Candidate) (*models.Artifact, error) {
	if candidate.URL == "" {
		return nil, fmt.Errorf("%w: empty locator", shared.ErrRetrieval)
	}

	dir := filepath.Join(p.opts.WorkDir, req.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: scratch dir: %v", shared.ErrRetrieval, err)
	}

	ctx, cancel := withTimeout(ctx, p.opts.DownloadTimeout)
	defer cancel()

	res, err := p.extractor.Download(ctx, candidate.URL, services.DownloadOptions{
		Dir:          dir,
		Name:         req.ID,
		AudioFormat:  p.opts.AudioFormat,
		AudioQuality: p.opts.AudioQuality,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRetrieval, timedOut(ctx, err))
	}

	title := res.Title
	if title == "" {
		title = candidate.Title
	}
	if title == "" {
		title = unknownTitle
	}

	path := res.Path
	if path == "" {
		path = filepath.Join(dir, req.ID+"."+p.opts.AudioFormat)
	}

	return &models.Artifact{
		Path:     path,
		Dir:      dir,
		Format:   p.opts.AudioFormat,
		Bitrate:  p.opts.AudioQuality,
		Title:    title,
		Duration: res.Duration,
	}, nil
}
