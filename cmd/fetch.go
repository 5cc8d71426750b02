package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/desertthunder/tunegrab/internal/locator"
	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/repositories"
	"github.com/desertthunder/tunegrab/internal/shared"
	"github.com/desertthunder/tunegrab/internal/tasks"
	"github.com/desertthunder/tunegrab/internal/ui"
	"github.com/urfave/cli/v3"
)

// consoleChatID stands in for a chat when the pipeline runs from the command line.
const consoleChatID int64 = 0

// Fetch runs one link through the pipeline and copies the result into --output.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("url")
	if raw == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	dest := cmd.String("output")
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.MkdirAll(r.config.Storage.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	if err := r.prepareExtractor(ctx); err != nil {
		return err
	}

	var recorder tasks.Recorder
	if cmd.Bool("record") {
		db, repo, err := r.openHistory()
		if err != nil {
			return err
		}
		defer db.Close()
		recorder = repositories.NewHistoryRecorder(repo)
	}

	console := newConsoleMessenger(r.output, dest, r.palette)
	pipeline := r.pipeline(console, recorder)

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug("progress", "state", update.State, "message", update.Message)
		}
	}()

	out := pipeline.Run(ctx, tasks.NewRequest(consoleChatID, locator.Classify(raw)), progress)
	close(progress)
	<-done

	switch out.State {
	case models.Delivered:
		r.writePlainln("%s %s", r.palette.OK("Saved"), console.Saved())
		return nil
	case models.Rejected:
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, out.Err)
	default:
		return out.Err
	}
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// plain renders HTML message text for a terminal.
func plain(text string) string {
	return html.UnescapeString(htmlTag.ReplaceAllString(text, ""))
}

// consoleMessenger implements [tasks.Messenger] on a terminal. Delivered audio is copied into
// dir under its display title.
type consoleMessenger struct {
	out     io.Writer
	dir     string
	palette *ui.Palette

	mu    sync.Mutex
	next  int
	saved string
}

func newConsoleMessenger(out io.Writer, dir string, palette *ui.Palette) *consoleMessenger {
	if palette == nil {
		palette = ui.Default
	}
	return &consoleMessenger{out: out, dir: dir, palette: palette}
}

func (c *consoleMessenger) print(text string) models.MessageRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	fmt.Fprintln(c.out, plain(text))
	return models.MessageRef{ChatID: consoleChatID, MessageID: c.next}
}

func (c *consoleMessenger) SendText(ctx context.Context, chatID int64, text string) (models.MessageRef, error) {
	return c.print(text), nil
}

func (c *consoleMessenger) EditText(ctx context.Context, ref models.MessageRef, text string) error {
	c.print(text)
	return nil
}

func (c *consoleMessenger) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) (models.MessageRef, error) {
	ref := c.print(caption)
	fmt.Fprintln(c.out, c.palette.Help("Cover: "+photoURL))
	return ref, nil
}

// SendAudio copies the artifact before the pipeline deletes it.
func (c *consoleMessenger) SendAudio(ctx context.Context, chatID int64, a *models.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := fileName(a.Title)
	if name == "" {
		name = "audio"
	}
	target := filepath.Join(c.dir, name+filepath.Ext(a.Path))

	if err := copyFile(a.Path, target); err != nil {
		return err
	}

	c.mu.Lock()
	c.saved = target
	c.mu.Unlock()
	return nil
}

// Saved returns the path of the last delivered file.
func (c *consoleMessenger) Saved() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved
}

var unsafeName = strings.NewReplacer("/", "_", `\`, "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_")

// fileName turns a display title into a file name.
func fileName(title string) string {
	return strings.TrimSpace(unsafeName.Replace(title))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy artifact: %w", err)
	}
	return out.Close()
}
