package tasks

import (
	"errors"
	"html"
	"strings"

	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/shared"
)

// ProgressUpdate is a state transition of one run.
//
// Used by the CLI to print progress for local fetches; the chat status message is separate.
type ProgressUpdate struct {
	RequestID string
	State     models.State
	Message   string
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Status and reply texts.
const (
	StatusFetchingInfo = "🔍 Fetching info from Spotify..."
	StatusSearching    = "🔎 Searching YouTube for the best match..."
	StatusDownloading  = "⏳ Downloading audio from YouTube..."

	UsageHint = "Please send a YouTube or Spotify link. Use /help for more information."
)

// StatusDownloaded is the success notice shown before the audio is sent.
func StatusDownloaded(title string) string {
	return "✅ Downloaded: " + html.EscapeString(title)
}

// UserMessage maps a fatal pipeline error to the short text shown to the requester.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shared.ErrNoCandidateFound):
		return "❌ No matching tracks found on YouTube."
	case errors.Is(err, shared.ErrMetadataFetch):
		return "❌ Error fetching Spotify info: " + cause(err, shared.ErrMetadataFetch)
	case errors.Is(err, shared.ErrRetrieval):
		return "❌ Error downloading audio: " + cause(err, shared.ErrRetrieval)
	case errors.Is(err, shared.ErrDelivery):
		return "❌ Error sending audio: " + cause(err, shared.ErrDelivery)
	default:
		return "❌ Something went wrong. Please try again."
	}
}

// cause strips the sentinel prefix so the underlying message is shown as-is.
func cause(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	return html.EscapeString(msg)
}
