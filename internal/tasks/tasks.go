// package tasks implements the track acquisition pipeline.
//
// A [Pipeline] takes one classified link per [Request] and carries it through metadata resolution,
// candidate selection, audio retrieval, tag enrichment and delivery. Each run owns its scratch
// directory and status message; nothing is shared between runs.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/services"
	"github.com/desertthunder/tunegrab/internal/shared"
	"github.com/desertthunder/tunegrab/internal/tagging"
)

// Messenger is the chat transport as seen by the pipeline. Text is HTML-formatted.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) (models.MessageRef, error)
	EditText(ctx context.Context, ref models.MessageRef, text string) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) (models.MessageRef, error)
	SendAudio(ctx context.Context, chatID int64, artifact *models.Artifact) error
}

// Tagger enriches a retrieved artifact. Implementations report failures in the result.
type Tagger interface {
	Enrich(ctx context.Context, artifact *models.Artifact, md models.TrackMetadata) tagging.Result
}

// Recorder persists finished requests. It is optional and failures are only logged.
type Recorder interface {
	Record(ctx context.Context, record models.RequestRecord) error
}

// Options are the per-process pipeline settings.
type Options struct {
	WorkDir      string
	AudioFormat  string
	AudioQuality string

	MetadataTimeout time.Duration
	SearchTimeout   time.Duration
	DownloadTimeout time.Duration
	SendTimeout     time.Duration
}

// OptionsFromConfig builds [Options] from the loaded configuration.
func OptionsFromConfig(cfg *shared.Config) Options {
	return Options{
		WorkDir:         cfg.Storage.WorkDir,
		AudioFormat:     cfg.Extractor.AudioFormat,
		AudioQuality:    cfg.Extractor.AudioQuality,
		MetadataTimeout: shared.Seconds(cfg.Timeouts.Metadata, 15*time.Second),
		SearchTimeout:   shared.Seconds(cfg.Timeouts.Search, 30*time.Second),
		DownloadTimeout: shared.Seconds(cfg.Timeouts.Download, 5*time.Minute),
		SendTimeout:     shared.Seconds(cfg.Timeouts.Send, 2*time.Minute),
	}
}

// Deps are the collaborators of a [Pipeline]. Catalog, Tagger and Recorder may be nil.
type Deps struct {
	Catalog   services.CatalogProvider
	Extractor services.Extractor
	Tagger    Tagger
	Messenger Messenger
	Recorder  Recorder
	Logger    *log.Logger
}

// Pipeline sequences the acquisition stages for one request at a time. It is safe for
// concurrent use; every run keeps its state on its own stack.
type Pipeline struct {
	catalog   services.CatalogProvider
	extractor services.Extractor
	tagger    Tagger
	messenger Messenger
	recorder  Recorder
	opts      Options
	logger    *log.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(deps Deps, opts Options) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if opts.AudioFormat == "" {
		opts.AudioFormat = "mp3"
	}
	if opts.AudioQuality == "" {
		opts.AudioQuality = "192"
	}
	return &Pipeline{
		catalog:   deps.Catalog,
		extractor: deps.Extractor,
		tagger:    deps.Tagger,
		messenger: deps.Messenger,
		recorder:  deps.Recorder,
		opts:      opts,
		logger:    logger,
	}
}

// Request is one user ask. ID doubles as the scratch directory and artifact file name.
type Request struct {
	ID      string
	ChatID  int64
	Locator models.Locator
}

// NewRequest assigns a fresh request id.
func NewRequest(chatID int64, loc models.Locator) Request {
	return Request{ID: shared.GenerateID(), ChatID: chatID, Locator: loc}
}

// Outcome is the terminal result of a run.
type Outcome struct {
	RequestID    string
	State        models.State
	Trace        []models.State
	Title        string
	ArtifactPath string
	Err          error
}

// run holds the mutable state of one request.
type run struct {
	req      Request
	logger   *log.Logger
	progress chan<- ProgressUpdate
	started  time.Time

	status   models.MessageRef
	artifact *models.Artifact
	out      Outcome
}

func (r *run) advance(state models.State, message string) {
	r.out.State = state
	r.out.Trace = append(r.out.Trace, state)
	sendProgress(r.progress, ProgressUpdate{RequestID: r.req.ID, State: state, Message: message})
}

// Run drives req to a terminal state. Fatal stage errors end in [models.Failed] with the status
// message edited to a failure notice; the scratch directory is removed on every path.
func (p *Pipeline) Run(ctx context.Context, req Request, progress chan<- ProgressUpdate) Outcome {
	r := p.begin(req, progress)
	defer p.record(ctx, r)

	loc := req.Locator
	r.advance(models.Classified, "classified as "+loc.Kind.String())
	if loc.Kind == models.Unrecognized {
		r.out.Err = fmt.Errorf("%w: %q", shared.ErrClassificationAmbiguous, loc.Raw)
		p.reply(ctx, r, UsageHint)
		r.advance(models.Rejected, UsageHint)
		return r.out
	}

	scratch := filepath.Join(p.opts.WorkDir, req.ID)
	defer p.cleanup(r, scratch)

	var md *models.TrackMetadata
	switch loc.Kind {
	case models.Video:
		p.sendStatus(ctx, r, StatusDownloading)
	case models.CatalogTrack:
		p.sendStatus(ctx, r, StatusFetchingInfo)
		meta, err := p.Resolve(ctx, loc)
		if err != nil {
			return p.fail(ctx, r, err)
		}
		md = &meta
		r.out.Title = meta.Title
		r.advance(models.MetadataResolved, meta.Title)
		p.sendInfo(ctx, r, meta)
		p.editStatus(ctx, r, StatusSearching)
	}

	candidate, err := p.Select(ctx, loc, md)
	if err != nil {
		return p.fail(ctx, r, err)
	}
	if md != nil {
		r.advance(models.Searched, candidate.URL)
		p.editStatus(ctx, r, StatusDownloading)
	}

	artifact, err := p.Retrieve(ctx, req, candidate)
	if err != nil {
		return p.fail(ctx, r, err)
	}
	r.artifact = artifact
	r.out.ArtifactPath = artifact.Path
	r.advance(models.Retrieved, artifact.Path)

	if md != nil {
		artifact.Title = md.Title
		artifact.Performer = md.Artist
		if p.tagger != nil {
			if res := p.tagger.Enrich(ctx, artifact, *md); res.Tagged {
				r.advance(models.Tagged, artifact.Title)
			} else {
				r.logger.Warn("delivering untagged audio", "error", res.Err)
			}
		}
	}
	r.out.Title = artifact.Title

	if err := p.Deliver(ctx, r.status, req.ChatID, artifact); err != nil {
		r.out.Err = err
		r.advance(models.Failed, err.Error())
		return r.out
	}

	r.advance(models.Delivered, artifact.Title)
	r.logger.Info("delivered", "title", artifact.Title)
	return r.out
}

// Reject answers a request that never enters the pipeline, such as a command with a link of
// the wrong kind.
func (p *Pipeline) Reject(ctx context.Context, req Request, reply string) Outcome {
	r := p.begin(req, nil)
	defer p.record(ctx, r)

	r.advance(models.Classified, "classified as "+req.Locator.Kind.String())
	r.out.Err = fmt.Errorf("%w: %q", shared.ErrClassificationAmbiguous, req.Locator.Raw)
	p.reply(ctx, r, reply)
	r.advance(models.Rejected, reply)
	return r.out
}

func (p *Pipeline) begin(req Request, progress chan<- ProgressUpdate) *run {
	if req.ID == "" {
		req.ID = shared.GenerateID()
	}
	r := &run{
		req:      req,
		logger:   shared.WithLogger(p.logger, "request", req.ID, "chat", req.ChatID),
		progress: progress,
		started:  time.Now(),
		out:      Outcome{RequestID: req.ID},
	}
	r.advance(models.Received, req.Locator.Raw)
	r.logger.Debug("request received", "kind", req.Locator.Kind, "input", req.Locator.Raw)
	return r
}

func (p *Pipeline) fail(ctx context.Context, r *run, err error) Outcome {
	r.logger.Error("request failed", "state", r.out.State, "error", err)
	r.out.Err = err

	// The notice goes out even when ctx was cancelled so the status never stays at a progress line.
	noticeCtx := context.WithoutCancel(ctx)
	if r.status.IsZero() {
		p.reply(noticeCtx, r, UserMessage(err))
	} else {
		p.editStatus(noticeCtx, r, UserMessage(err))
	}
	r.advance(models.Failed, err.Error())
	return r.out
}

func (p *Pipeline) cleanup(r *run, scratch string) {
	if err := r.artifact.Remove(); err != nil {
		r.logger.Warn("failed to remove artifact", "path", r.artifact.Path, "error", err)
	}
	if err := os.RemoveAll(scratch); err != nil {
		r.logger.Warn("failed to remove scratch dir", "dir", scratch, "error", err)
	}
}

func (p *Pipeline) record(ctx context.Context, r *run) {
	if p.recorder == nil {
		return
	}
	rec := models.RequestRecord{
		ID:         r.req.ID,
		ChatID:     r.req.ChatID,
		Kind:       r.req.Locator.Kind,
		Locator:    r.req.Locator.Raw,
		State:      r.out.State,
		Title:      r.out.Title,
		StartedAt:  r.started,
		FinishedAt: time.Now(),
	}
	if r.req.Locator.URL != "" {
		rec.Locator = r.req.Locator.URL
	}
	if r.out.Err != nil {
		rec.Error = r.out.Err.Error()
	}
	if err := p.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Warn("failed to record request", "error", err)
	}
}

func (p *Pipeline) sendCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, p.opts.SendTimeout)
}

func (p *Pipeline) reply(ctx context.Context, r *run, text string) {
	ctx, cancel := p.sendCtx(ctx)
	defer cancel()
	if _, err := p.messenger.SendText(ctx, r.req.ChatID, text); err != nil {
		r.logger.Error("failed to send reply", "error", err)
	}
}

func (p *Pipeline) sendStatus(ctx context.Context, r *run, text string) {
	ctx, cancel := p.sendCtx(ctx)
	defer cancel()
	ref, err := p.messenger.SendText(ctx, r.req.ChatID, text)
	if err != nil {
		r.logger.Error("failed to send status", "error", err)
		return
	}
	r.status = ref
}

func (p *Pipeline) editStatus(ctx context.Context, r *run, text string) {
	if r.status.IsZero() {
		return
	}
	ctx, cancel := p.sendCtx(ctx)
	defer cancel()
	if err := p.messenger.EditText(ctx, r.status, text); err != nil {
		r.logger.Warn("failed to update status", "error", err)
	}
}

// sendInfo posts the track card, as a photo caption when a cover exists.
func (p *Pipeline) sendInfo(ctx context.Context, r *run, md models.TrackMetadata) {
	ctx, cancel := p.sendCtx(ctx)
	defer cancel()

	caption := InfoCaption(md)
	var err error
	if md.CoverURL != "" {
		_, err = p.messenger.SendPhoto(ctx, r.req.ChatID, md.CoverURL, caption)
	}
	if md.CoverURL == "" || err != nil {
		if err != nil {
			r.logger.Warn("cover photo rejected, sending text card", "error", err)
		}
		_, err = p.messenger.SendText(ctx, r.req.ChatID, caption)
	}
	if err != nil {
		r.logger.Warn("failed to send track info", "error", err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// timedOut adds [shared.ErrTimeout] to the chain when the stage context expired.
func timedOut(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, shared.ErrTimeout) {
		return errors.Join(err, shared.ErrTimeout)
	}
	return err
}
