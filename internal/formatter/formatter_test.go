package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/repositories"
	"github.com/desertthunder/tunegrab/internal/shared"
	th "github.com/desertthunder/tunegrab/internal/testing"
)

func sampleRows() []repositories.StoredRequest {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []repositories.StoredRequest{
		{
			Sequence: 2,
			RequestRecord: models.RequestRecord{
				ID: "b", ChatID: 9, Kind: models.CatalogTrack, State: models.Delivered,
				Title: "Song | Live", Locator: "https://open.spotify.com/track/XYZ",
				StartedAt: start, FinishedAt: start.Add(185 * time.Second),
			},
		},
		{
			Sequence: 1,
			RequestRecord: models.RequestRecord{
				ID: "a", ChatID: 9, Kind: models.Video, State: models.Failed,
				Locator: "https://youtu.be/gone", Error: "audio retrieval failed: Video unavailable",
				StartedAt: start, FinishedAt: start.Add(2 * time.Second),
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleRows())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Seq,ID,Chat,Kind,State,Title,Locator,Error,Started,Finished") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "2,b,9,catalog_track,delivered,Song | Live") {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if !strings.Contains(output, "2026-03-01T12:03:05Z") {
			t.Errorf("CSV missing finish time, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleRows())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Request History") || !strings.Contains(output, "**Requests**: 2") {
			t.Errorf("Markdown missing header, got: %s", output)
		}
		if !strings.Contains(output, `| 2 | delivered | catalog_track | Song \| Live | 3:05 |  |`) {
			t.Errorf("Markdown row not escaped, got: %s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleRows())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "#2 [delivered] Song | Live (3:05)") {
			t.Errorf("Text missing delivered row, got: %s", output)
		}
		if !strings.Contains(output, "#1 [failed] https://youtu.be/gone (0:02) - audio retrieval failed: Video unavailable") {
			t.Errorf("Text missing failed row, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleRows())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0]["state"] != "delivered" || decoded[1]["kind"] != "video" {
			t.Errorf("unexpected JSON: %s", data)
		}
		if _, ok := decoded[0]["error"]; ok {
			t.Error("empty error should be omitted")
		}
	})

	t.Run("Empty", func(t *testing.T) {
		data, err := ExportToText(nil)
		if err != nil || !strings.Contains(string(data), "Requests: 0") {
			t.Errorf("unexpected empty export: %q (%v)", data, err)
		}
	})
}

func TestExport(t *testing.T) {
	t.Run("dispatches by format", func(t *testing.T) {
		for _, format := range []string{"csv", "markdown", "md", "text", "txt", "json", "JSON"} {
			if _, err := Export(sampleRows(), format); err != nil {
				t.Errorf("Export(%q) failed: %v", format, err)
			}
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := Export(sampleRows(), "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.csv")
		if err := WriteExport(sampleRows(), FormatCSV, path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "Seq,ID") {
			t.Errorf("unexpected file content: %s", content)
		}
	})

	t.Run("WriteExport to missing dir", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "history.csv")
		if err := WriteExport(sampleRows(), FormatCSV, path); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}

func TestElapsed(t *testing.T) {
	start := time.Now()
	if got := Elapsed(start, start.Add(65*time.Second)); got != "1:05" {
		t.Errorf("expected 1:05, got %s", got)
	}
	if got := Elapsed(start, start.Add(-time.Second)); got != "0:00" {
		t.Errorf("expected 0:00 for negative spans, got %s", got)
	}
}
