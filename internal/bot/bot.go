// Package bot connects the chat transport to the acquisition pipeline.
//
// [Telegram] receives updates and sends messages; [Dispatcher] turns each message into a static
// reply or a pipeline run; [Bot.Run] schedules one task per message so a slow download never
// holds up other chats.
package bot

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunegrab/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Source delivers inbound messages until ctx is done or the source is stopped.
type Source interface {
	Updates(ctx context.Context) <-chan Incoming
	Stop()
}

// Bot is the long-running update loop.
type Bot struct {
	source     Source
	dispatcher *Dispatcher
	logger     *log.Logger
}

// New creates a Bot.
func New(source Source, dispatcher *Dispatcher, logger *log.Logger) *Bot {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Bot{source: source, dispatcher: dispatcher, logger: logger}
}

// Run handles updates concurrently until ctx is cancelled or the update channel closes, then
// waits for in-flight requests to finish. Cancelling ctx also cancels those requests, which
// still clean up their files.
func (b *Bot) Run(ctx context.Context) error {
	updates := b.source.Updates(ctx)
	defer b.source.Stop()

	g, gctx := errgroup.WithContext(ctx)
	b.logger.Info("listening for updates")

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case in, ok := <-updates:
			if !ok {
				break loop
			}
			g.Go(func() error {
				b.dispatcher.Handle(gctx, in)
				return nil
			})
		}
	}

	b.logger.Info("waiting for in-flight requests")
	return g.Wait()
}
