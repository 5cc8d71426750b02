package bot

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunegrab/internal/locator"
	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/shared"
	"github.com/desertthunder/tunegrab/internal/tasks"
)

// Reply texts for the command surface.
const (
	WelcomeText = "Welcome to the Music Downloader Bot!\n\n" +
		"Send me a YouTube link to download a song or a Spotify link to get song info and download it.\n\n" +
		"Available commands:\n" +
		"/help - Show this help message\n" +
		"/download [YouTube URL] - Download audio from YouTube\n" +
		"/spotify [Spotify URL] - Get song info from Spotify and download with ID3 tags"

	HelpText = "How to use this bot:\n\n" +
		"1. Send a YouTube or Spotify link directly\n" +
		"2. Or use one of these commands:\n" +
		"   /download [YouTube URL] - Download audio from YouTube\n" +
		"   /spotify [Spotify URL] - Get song info from Spotify and download with ID3 tags"

	DownloadUsage   = "Please provide a YouTube URL after the /download command."
	SpotifyUsage    = "Please provide a Spotify URL after the /spotify command."
	InvalidVideoURL = "Please provide a valid YouTube URL."
	InvalidTrackURL = "Please provide a valid Spotify URL."
)

// Incoming is one inbound chat message. Command is set (without the slash) for bot commands.
type Incoming struct {
	ChatID  int64
	Text    string
	Command string
	Args    []string
}

// Runner is the part of [tasks.Pipeline] the dispatcher drives.
type Runner interface {
	Run(ctx context.Context, req tasks.Request, progress chan<- tasks.ProgressUpdate) tasks.Outcome
	Reject(ctx context.Context, req tasks.Request, reply string) tasks.Outcome
}

// Dispatcher routes messages to static replies or the pipeline.
type Dispatcher struct {
	pipeline  Runner
	messenger tasks.Messenger
	logger    *log.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(pipeline Runner, messenger tasks.Messenger, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dispatcher{pipeline: pipeline, messenger: messenger, logger: logger}
}

// Handle processes in to completion.
func (d *Dispatcher) Handle(ctx context.Context, in Incoming) {
	switch in.Command {
	case "":
		d.handleText(ctx, in)
	case "start":
		d.reply(ctx, in.ChatID, WelcomeText)
	case "help":
		d.reply(ctx, in.ChatID, HelpText)
	case "download":
		d.handleCommand(ctx, in, models.Video, DownloadUsage, InvalidVideoURL)
	case "spotify":
		d.handleCommand(ctx, in, models.CatalogTrack, SpotifyUsage, InvalidTrackURL)
	default:
		d.logger.Debug("ignoring unknown command", "command", in.Command, "chat", in.ChatID)
	}
}

// handleCommand requires exactly one argument of the expected kind.
func (d *Dispatcher) handleCommand(ctx context.Context, in Incoming, want models.LocatorKind, usage, invalid string) {
	if len(in.Args) != 1 {
		d.reply(ctx, in.ChatID, usage)
		return
	}

	req := tasks.NewRequest(in.ChatID, locator.Classify(in.Args[0]))
	if req.Locator.Kind != want {
		d.pipeline.Reject(ctx, req, invalid)
		return
	}
	d.pipeline.Run(ctx, req, nil)
}

// handleText scans free text for the first recognized link.
func (d *Dispatcher) handleText(ctx context.Context, in Incoming) {
	d.pipeline.Run(ctx, tasks.NewRequest(in.ChatID, locator.Scan(in.Text)), nil)
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if _, err := d.messenger.SendText(ctx, chatID, text); err != nil {
		d.logger.Error("failed to reply", "chat", chatID, "error", err)
	}
}
