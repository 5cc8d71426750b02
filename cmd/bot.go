package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/tunegrab/internal/bot"
	"github.com/desertthunder/tunegrab/internal/repositories"
	"github.com/desertthunder/tunegrab/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RunBot long-polls Telegram and serves each update on its own goroutine until SIGINT or SIGTERM.
func (r *Runner) RunBot(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if r.catalog == nil {
		r.logger.Warn("spotify credentials missing, catalog links will fail")
	}
	if err := os.MkdirAll(r.config.Storage.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.prepareExtractor(ctx); err != nil {
		return err
	}

	var recorder tasks.Recorder
	if !cmd.Bool("no-history") {
		db, repo, err := r.openHistory()
		if err != nil {
			r.logger.Warn("request history disabled", "error", err)
		} else {
			defer db.Close()
			recorder = repositories.NewHistoryRecorder(repo)
		}
	}

	telegram, err := bot.NewTelegram(bot.TelegramOptions{
		Token:             r.config.Credentials.Telegram.Token,
		MessagesPerSecond: r.config.Transport.MessagesPerSecond,
	}, r.logger)
	if err != nil {
		return err
	}

	pipeline := r.pipeline(telegram, recorder)
	dispatcher := bot.NewDispatcher(pipeline, telegram, r.logger)

	r.logger.Info("bot is running", "bot", telegram.Username(), "work_dir", r.config.Storage.WorkDir)
	if err := bot.New(telegram, dispatcher, r.logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.logger.Info("bot stopped")
	return nil
}
