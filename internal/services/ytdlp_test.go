package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/tunegrab/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

// fakeYTDLP writes a shell script standing in for yt-dlp. The script first saves its
// arguments, one per line, to the returned args file.
func fakeYTDLP(t *testing.T, body string) (binary, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp is a POSIX shell script")
	}

	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	binary = filepath.Join(dir, "yt-dlp")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > '" + argsFile + "'\n" + body + "\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake yt-dlp: %v", err)
	}
	return binary, argsFile
}

func readArgs(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("fake yt-dlp was not run: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

const searchOutput = `
printf '%s\n' '{"_type":"video","id":"a","title":"No Link"}'
printf '%s\n' '{"_type":"video","id":"b","title":"Song - A","webpage_url":"https://www.youtube.com/watch?v=b","duration":185}'
printf '%s\n' '{"_type":"video","id":"c","title":"Song (Live)","webpage_url":"https://www.youtube.com/watch?v=c","duration":240.6}'
`

const downloadOutput = `
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then out="$2"; fi
  shift
done
out="${out%".%(ext)s"}.mp3"
printf 'audio' > "$out"
printf '%s\n' '{"_type":"video","id":"v","title":"Upload Title","webpage_url":"https://www.youtube.com/watch?v=v","duration":185.4}'
`

func TestYTDLP(t *testing.T) {
	ctx := context.Background()

	t.Run("NewYTDLP", func(t *testing.T) {
		if got := NewYTDLP("/opt/yt-dlp").Binary(); got != "/opt/yt-dlp" {
			t.Errorf("expected configured binary, got %q", got)
		}
		if got := NewYTDLP("").Binary(); got != "" {
			t.Errorf("expected empty binary, got %q", got)
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("caps results at limit and skips entries without a link", func(t *testing.T) {
			binary, argsFile := fakeYTDLP(t, searchOutput)

			results, err := NewYTDLP(binary).Search(ctx, "song a audio", 1)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("expected one result, got %+v", results)
			}
			want := SearchResult{Title: "Song - A", WebpageURL: "https://www.youtube.com/watch?v=b", Duration: 185}
			if results[0] != want {
				t.Errorf("got %+v, want %+v", results[0], want)
			}

			args := readArgs(t, argsFile)
			for _, flag := range []string{"--skip-download", "--print-json", "ytsearch1:song a audio"} {
				if !slices.Contains(args, flag) {
					t.Errorf("expected %q in args %v", flag, args)
				}
			}
		})

		t.Run("keeps engine order", func(t *testing.T) {
			binary, _ := fakeYTDLP(t, searchOutput)

			results, err := NewYTDLP(binary).Search(ctx, "song", 5)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(results) != 2 || results[0].Title != "Song - A" || results[1].Duration != 240 {
				t.Errorf("unexpected results %+v", results)
			}
		})

		t.Run("no matches is an empty result", func(t *testing.T) {
			binary, _ := fakeYTDLP(t, "exit 0")

			results, err := NewYTDLP(binary).Search(ctx, "nothing matches this", 1)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(results) != 0 {
				t.Errorf("expected no results, got %+v", results)
			}
		})

		t.Run("engine failure carries the last stderr line", func(t *testing.T) {
			binary, _ := fakeYTDLP(t, `
printf '%s\n' 'WARNING: [youtube] falling back' >&2
printf '%s\n' 'ERROR: Unable to download API page' >&2
exit 1`)

			_, err := NewYTDLP(binary).Search(ctx, "q", 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := err.Error(); got != `search "q": ERROR: Unable to download API page` {
				t.Errorf("unexpected message %q", got)
			}
			if _, ok := ytdlp.IsExitCodeError(err); !ok {
				t.Errorf("expected the exit code error in the chain, got %T", errors.Unwrap(err))
			}
		})

		t.Run("empty query runs nothing", func(t *testing.T) {
			binary, argsFile := fakeYTDLP(t, "exit 0")

			if _, err := NewYTDLP(binary).Search(ctx, "  ", 1); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if _, err := os.Stat(argsFile); !os.IsNotExist(err) {
				t.Error("expected yt-dlp not to run")
			}
		})
	})

	t.Run("Download", func(t *testing.T) {
		opts := func(dir string) DownloadOptions {
			return DownloadOptions{Dir: dir, Name: "req-1", AudioFormat: "mp3", AudioQuality: "192"}
		}

		t.Run("extracts audio to dir/name.format", func(t *testing.T) {
			binary, argsFile := fakeYTDLP(t, downloadOutput)
			dir := t.TempDir()

			res, err := NewYTDLP(binary).Download(ctx, "https://youtu.be/v", opts(dir))
			if err != nil {
				t.Fatalf("Download failed: %v", err)
			}

			wantPath := filepath.Join(dir, "req-1.mp3")
			if res.Path != wantPath {
				t.Errorf("expected %s, got %s", wantPath, res.Path)
			}
			if data, err := os.ReadFile(wantPath); err != nil || string(data) != "audio" {
				t.Errorf("expected audio at %s (%v)", wantPath, err)
			}
			if res.Title != "Upload Title" || res.Duration != 185 || res.WebpageURL != "https://www.youtube.com/watch?v=v" {
				t.Errorf("unexpected result %+v", res)
			}

			args := readArgs(t, argsFile)
			for _, flag := range []string{"--extract-audio", "--audio-format", "mp3", "--audio-quality", "192", "--no-playlist", "https://youtu.be/v"} {
				if !slices.Contains(args, flag) {
					t.Errorf("expected %q in args %v", flag, args)
				}
			}
			if !slices.Contains(args, filepath.Join(dir, "req-1.%(ext)s")) {
				t.Errorf("expected output template in args %v", args)
			}
		})

		t.Run("missing output is an error", func(t *testing.T) {
			binary, _ := fakeYTDLP(t, "exit 0")

			_, err := NewYTDLP(binary).Download(ctx, "https://youtu.be/v", opts(t.TempDir()))
			if err == nil || !strings.Contains(err.Error(), "expected output") {
				t.Errorf("expected missing output error, got %v", err)
			}
		})

		t.Run("engine failure carries the last stderr line", func(t *testing.T) {
			binary, _ := fakeYTDLP(t, `
printf '%s\n' 'ERROR: [youtube] gone: Video unavailable' >&2
exit 1`)

			_, err := NewYTDLP(binary).Download(ctx, "https://youtu.be/gone", opts(t.TempDir()))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := err.Error(); got != "download https://youtu.be/gone: ERROR: [youtube] gone: Video unavailable" {
				t.Errorf("unexpected message %q", got)
			}
		})

		t.Run("incomplete options run nothing", func(t *testing.T) {
			binary, argsFile := fakeYTDLP(t, downloadOutput)

			for _, o := range []DownloadOptions{
				{Name: "x", AudioFormat: "mp3"},
				{Dir: t.TempDir(), AudioFormat: "mp3"},
				{Dir: t.TempDir(), Name: "x"},
			} {
				if _, err := NewYTDLP(binary).Download(ctx, "https://youtu.be/v", o); !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("%+v: expected ErrInvalidArgument, got %v", o, err)
				}
			}
			if _, err := os.Stat(argsFile); !os.IsNotExist(err) {
				t.Error("expected yt-dlp not to run")
			}
		})
	})

	t.Run("runError", func(t *testing.T) {
		base := errors.New("exit status 1")

		t.Run("uses the last stderr line", func(t *testing.T) {
			err := runError(&ytdlp.Result{Stderr: "WARNING: retrying\nERROR: Private video\n"}, base)
			if err.Error() != "ERROR: Private video" {
				t.Errorf("unexpected message %q", err.Error())
			}
			if !errors.Is(err, base) {
				t.Error("expected the run error to stay in the chain")
			}
		})

		t.Run("keeps the error without stderr", func(t *testing.T) {
			if err := runError(&ytdlp.Result{}, base); err != base {
				t.Errorf("expected base error, got %v", err)
			}
			if err := runError(nil, base); err != base {
				t.Errorf("expected base error, got %v", err)
			}
		})

		t.Run("passes context errors through", func(t *testing.T) {
			err := runError(&ytdlp.Result{Stderr: "ERROR: interrupted"}, context.DeadlineExceeded)
			if err != context.DeadlineExceeded {
				t.Errorf("expected DeadlineExceeded, got %v", err)
			}
		})
	})
}
