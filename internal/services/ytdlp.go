package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/tunegrab/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

// YTDLP implements [Extractor] by shelling out to yt-dlp through go-ytdlp.
type YTDLP struct {
	mu     sync.RWMutex
	binary string
	ffmpeg string
}

// NewYTDLP creates an extractor. An empty binary lets go-ytdlp resolve the executable from PATH
// or its own cache.
func NewYTDLP(binary string) *YTDLP {
	return &YTDLP{binary: binary}
}

// Binary returns the yt-dlp executable in use; empty means go-ytdlp resolves it per run.
func (y *YTDLP) Binary() string {
	y.mu.RLock()
	defer y.mu.RUnlock()
	return y.binary
}

// Install makes sure yt-dlp, ffmpeg and ffprobe are available, downloading them into the
// go-ytdlp cache when they are not on PATH. Later runs use the resolved executables.
func (y *YTDLP) Install(ctx context.Context) error {
	res, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: yt-dlp install: %v", shared.ErrServiceUnavailable, err)
	}
	ffmpeg, err := ytdlp.InstallFFmpeg(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: ffmpeg install: %v", shared.ErrServiceUnavailable, err)
	}
	if _, err := ytdlp.InstallFFprobe(ctx, nil); err != nil {
		return fmt.Errorf("%w: ffprobe install: %v", shared.ErrServiceUnavailable, err)
	}

	y.mu.Lock()
	y.binary = res.Executable
	y.ffmpeg = ffmpeg.Executable
	y.mu.Unlock()
	return nil
}

func (y *YTDLP) command() *ytdlp.Command {
	y.mu.RLock()
	defer y.mu.RUnlock()

	cmd := ytdlp.New()
	if y.binary != "" {
		cmd.SetExecutable(y.binary)
	}
	if y.ffmpeg != "" {
		cmd.FFmpegLocation(y.ffmpeg)
	}
	return cmd
}

// Search runs "ytsearchN:query" without downloading and returns the entries in engine order.
func (y *YTDLP) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = 1
	}

	res, err := y.command().
		SkipDownload().
		PrintJSON().
		Run(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, runError(res, err))
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	results := make([]SearchResult, 0, len(infos))
	for _, info := range infos {
		if info == nil || info.WebpageURL == nil || *info.WebpageURL == "" {
			continue
		}
		r := SearchResult{WebpageURL: *info.WebpageURL}
		if info.Title != nil {
			r.Title = *info.Title
		}
		if info.Duration != nil {
			r.Duration = int(*info.Duration)
		}
		results = append(results, r)
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// Download fetches a single video and extracts its audio to opts.Dir/opts.Name.<format>.
func (y *YTDLP) Download(ctx context.Context, url string, opts DownloadOptions) (*DownloadResult, error) {
	if opts.Dir == "" || opts.Name == "" || opts.AudioFormat == "" {
		return nil, fmt.Errorf("%w: download options need dir, name and format", shared.ErrInvalidArgument)
	}

	cmd := y.command().
		ExtractAudio().
		AudioFormat(opts.AudioFormat).
		NoPlaylist().
		PrintJSON().
		Output(filepath.Join(opts.Dir, opts.Name+".%(ext)s"))
	if opts.AudioQuality != "" {
		cmd.AudioQuality(opts.AudioQuality)
	}

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, runError(res, err))
	}

	path := filepath.Join(opts.Dir, opts.Name+"."+opts.AudioFormat)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("expected output %s: %w", path, err)
	}

	out := &DownloadResult{Path: path, WebpageURL: url}
	if infos, err := res.GetExtractedInfo(); err == nil && len(infos) > 0 && infos[0] != nil {
		info := infos[0]
		if info.Title != nil {
			out.Title = *info.Title
		}
		if info.WebpageURL != nil && *info.WebpageURL != "" {
			out.WebpageURL = *info.WebpageURL
		}
		if info.Duration != nil {
			out.Duration = int(*info.Duration)
		}
	}
	return out, nil
}

// engineError carries the last stderr line of a failed yt-dlp run as its message.
type engineError struct {
	msg string
	err error
}

func (e *engineError) Error() string { return e.msg }
func (e *engineError) Unwrap() error { return e.err }

// runError prefers the last stderr line of a failed run over go-ytdlp's decorated error.
func runError(res *ytdlp.Result, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if res == nil {
		return err
	}
	lines := strings.Split(strings.TrimSpace(res.Stderr), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return &engineError{msg: last, err: err}
	}
	return err
}
