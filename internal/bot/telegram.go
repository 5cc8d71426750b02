package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/shared"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const pollTimeout = 60 // seconds, long polling

// Telegram implements [tasks.Messenger] and [Source] on the Bot API.
//
// Outbound calls share one token bucket so bursts from concurrent requests stay under the API
// flood limits.
type Telegram struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
	logger  *log.Logger
}

// TelegramOptions configures [NewTelegram].
type TelegramOptions struct {
	Token             string
	MessagesPerSecond float64
	Endpoint          string      // Bot API URL template, defaults to [tgbotapi.APIEndpoint]
	Client            *http.Client // defaults to a client without timeout; calls are bounded by ctx
}

// NewTelegram authenticates the bot token with getMe.
func NewTelegram(opts TelegramOptions, logger *log.Logger) (*Telegram, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("%w: telegram token", shared.ErrMissingCredentials)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}

	api, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.Endpoint, opts.Client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	tgbotapi.SetLogger(botLogger{logger})

	limit := rate.Inf
	if opts.MessagesPerSecond > 0 {
		limit = rate.Limit(opts.MessagesPerSecond)
	}

	logger.Info("authorized", "bot", api.Self.UserName)
	return &Telegram{
		api:     api,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// Username returns the bot's handle.
func (t *Telegram) Username() string { return t.api.Self.UserName }

func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) (models.MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return t.send(ctx, msg)
}

func (t *Telegram) EditText(ctx context.Context, ref models.MessageRef, text string) error {
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := call(ctx, t.limiter, func() (*tgbotapi.APIResponse, error) { return t.api.Request(edit) })
	return err
}

func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) (models.MessageRef, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	return t.send(ctx, photo)
}

func (t *Telegram) SendAudio(ctx context.Context, chatID int64, a *models.Artifact) error {
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(a.Path))
	audio.Title = a.Title
	audio.Performer = a.Performer
	audio.Duration = a.Duration
	_, err := t.send(ctx, audio)
	return err
}

func (t *Telegram) send(ctx context.Context, c tgbotapi.Chattable) (models.MessageRef, error) {
	msg, err := call(ctx, t.limiter, func() (tgbotapi.Message, error) { return t.api.Send(c) })
	if err != nil {
		return models.MessageRef{}, err
	}
	ref := models.MessageRef{MessageID: msg.MessageID}
	if msg.Chat != nil {
		ref.ChatID = msg.Chat.ID
	}
	return ref, nil
}

// call waits for the limiter and runs fn, giving up when ctx ends. The Bot API client has no
// context support, so an abandoned call finishes in the background.
func call[T any](ctx context.Context, limiter *rate.Limiter, fn func() (T, error)) (T, error) {
	var zero T
	if err := limiter.Wait(ctx); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}

// Updates starts long polling and converts text messages to [Incoming].
func (t *Telegram) Updates(ctx context.Context) <-chan Incoming {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeout
	updates := t.api.GetUpdatesChan(cfg)

	out := make(chan Incoming)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				in, ok := toIncoming(u)
				if !ok {
					continue
				}
				select {
				case out <- in:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Stop ends long polling.
func (t *Telegram) Stop() {
	t.api.StopReceivingUpdates()
}

func toIncoming(u tgbotapi.Update) (Incoming, bool) {
	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return Incoming{}, false
	}

	in := Incoming{ChatID: msg.Chat.ID, Text: msg.Text}
	if msg.IsCommand() {
		in.Command = strings.ToLower(msg.Command())
		in.Args = strings.Fields(msg.CommandArguments())
	}
	return in, true
}

// botLogger routes library log lines into the application logger.
type botLogger struct{ l *log.Logger }

func (b botLogger) Println(v ...any) { b.l.Warn(strings.TrimSpace(fmt.Sprintln(v...))) }

func (b botLogger) Printf(format string, v ...any) { b.l.Warnf(format, v...) }
