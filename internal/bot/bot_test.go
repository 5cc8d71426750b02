package bot

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/tunegrab/internal/shared"
	tu "github.com/desertthunder/tunegrab/internal/testing"
)

type chanSource struct {
	ch      chan Incoming
	stopped atomic.Bool
}

func (c *chanSource) Updates(ctx context.Context) <-chan Incoming { return c.ch }
func (c *chanSource) Stop()                                      { c.stopped.Store(true) }

func TestBotRun(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("handles every update then stops", func(t *testing.T) {
		source := &chanSource{ch: make(chan Incoming)}
		runner := &fakeRunner{}
		b := New(source, NewDispatcher(runner, &tu.MockMessenger{}, logger), logger)

		done := make(chan error, 1)
		go func() { done <- b.Run(context.Background()) }()

		for i := range 5 {
			source.ch <- Incoming{ChatID: int64(i), Command: "download", Args: []string{"https://youtu.be/abc"}}
		}
		close(source.ch)

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after the source closed")
		}

		if got := len(runner.all()); got != 5 {
			t.Errorf("expected 5 pipeline runs, got %d", got)
		}
		if !source.stopped.Load() {
			t.Error("expected source to be stopped")
		}
	})

	t.Run("returns on cancel", func(t *testing.T) {
		source := &chanSource{ch: make(chan Incoming)}
		b := New(source, NewDispatcher(&fakeRunner{}, &tu.MockMessenger{}, logger), logger)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- b.Run(ctx) }()
		cancel()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}
