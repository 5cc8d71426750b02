// package formatter renders request history as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tunegrab/internal/repositories"
	"github.com/desertthunder/tunegrab/internal/shared"
)

// Formats accepted by [Export].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

const timeLayout = time.RFC3339

// ExportToCSV converts history rows to CSV with columns: Seq, ID, Chat, Kind, State, Title, Locator, Error, Started, Finished
func ExportToCSV(rows []repositories.StoredRequest) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Seq", "ID", "Chat", "Kind", "State", "Title", "Locator", "Error", "Started", "Finished"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Sequence),
			r.ID,
			strconv.FormatInt(r.ChatID, 10),
			r.Kind.String(),
			r.State.String(),
			r.Title,
			r.Locator,
			r.Error,
			r.StartedAt.Format(timeLayout),
			r.FinishedAt.Format(timeLayout),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts history rows to a Markdown table.
func ExportToMarkdown(rows []repositories.StoredRequest) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Request History\n\n")
	fmt.Fprintf(&buf, "**Requests**: %d\n\n", len(rows))
	buf.WriteString("| # | State | Kind | Title | Took | Error |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s | %s |\n",
			r.Sequence, r.State, r.Kind, cell(r.Title), Elapsed(r.StartedAt, r.FinishedAt), cell(r.Error))
	}

	return buf.Bytes(), nil
}

// ExportToText converts history rows to one line per request.
func ExportToText(rows []repositories.StoredRequest) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Requests: %d\n\n", len(rows))
	for _, r := range rows {
		title := r.Title
		if title == "" {
			title = r.Locator
		}
		fmt.Fprintf(&buf, "#%d [%s] %s (%s)", r.Sequence, r.State, title, Elapsed(r.StartedAt, r.FinishedAt))
		if r.Error != "" {
			fmt.Fprintf(&buf, " - %s", r.Error)
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

type jsonRow struct {
	Sequence   int       `json:"sequence"`
	ID         string    `json:"id"`
	ChatID     int64     `json:"chat_id"`
	Kind       string    `json:"kind"`
	State      string    `json:"state"`
	Title      string    `json:"title,omitempty"`
	Locator    string    `json:"locator"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ExportToJSON converts history rows to an indented JSON array.
func ExportToJSON(rows []repositories.StoredRequest) ([]byte, error) {
	out := make([]jsonRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, jsonRow{
			Sequence:   r.Sequence,
			ID:         r.ID,
			ChatID:     r.ChatID,
			Kind:       r.Kind.String(),
			State:      r.State.String(),
			Title:      r.Title,
			Locator:    r.Locator,
			Error:      r.Error,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// Export renders rows in the named format.
func Export(rows []repositories.StoredRequest, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ExportToCSV(rows)
	case FormatMarkdown, "md":
		return ExportToMarkdown(rows)
	case FormatText, "txt":
		return ExportToText(rows)
	case FormatJSON:
		return ExportToJSON(rows)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders rows and writes them to path.
func WriteExport(rows []repositories.StoredRequest, format, path string) error {
	data, err := Export(rows, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// Elapsed renders the wall time of a request, rounded to the second.
func Elapsed(start, end time.Time) string {
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	return shared.FormatDuration(int(d.Round(time.Second).Milliseconds()))
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
