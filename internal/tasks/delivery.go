package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/shared"
)

// Deliver marks the status as done, sends the audio and removes the artifact whatever the send
// outcome. A failed send is logged, shown on the status message and returned as
// [shared.ErrDelivery].
func (p *Pipeline) Deliver(ctx context.Context, status models.MessageRef, chatID int64, artifact *models.Artifact) error {
	logger := p.logger.With("chat", chatID, "path", artifact.Path)
	defer func() {
		if err := artifact.Remove(); err != nil {
			logger.Warn("failed to remove artifact", "error", err)
		}
	}()

	editCtx, cancel := withTimeout(ctx, p.opts.SendTimeout)
	if !status.IsZero() {
		if err := p.messenger.EditText(editCtx, status, StatusDownloaded(artifact.Title)); err != nil {
			logger.Warn("failed to update status", "error", err)
		}
	}
	cancel()

	sendCtx, cancel := withTimeout(ctx, p.opts.SendTimeout)
	defer cancel()
	if err := p.messenger.SendAudio(sendCtx, chatID, artifact); err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrDelivery, timedOut(sendCtx, err))
		logger.Error("failed to send audio", "error", err)

		noticeCtx, cancel := withTimeout(context.WithoutCancel(ctx), p.opts.SendTimeout)
		defer cancel()
		notice := UserMessage(err)
		if status.IsZero() {
			_, _ = p.messenger.SendText(noticeCtx, chatID, notice)
		} else if editErr := p.messenger.EditText(noticeCtx, status, notice); editErr != nil {
			logger.Warn("failed to update status", "error", editErr)
		}
		return err
	}
	return nil
}
