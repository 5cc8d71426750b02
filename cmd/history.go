package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tunegrab/internal/formatter"
	"github.com/desertthunder/tunegrab/internal/repositories"
	"github.com/urfave/cli/v3"
)

// History lists recent requests as a styled table or exports them with --format.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, repo, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	limit := cmd.Int("limit")
	var rows []repositories.StoredRequest
	if chat := cmd.Int64("chat"); cmd.IsSet("chat") {
		rows, err = repo.ByChat(ctx, chat, limit)
	} else {
		rows, err = repo.Recent(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	format := cmd.String("format")
	if path := cmd.String("output"); path != "" {
		if format == "table" {
			format = formatter.FormatText
		}
		if err := formatter.WriteExport(rows, format, path); err != nil {
			return err
		}
		r.logger.Info("history exported", "path", path, "requests", len(rows))
		return nil
	}

	if format != "table" {
		data, err := formatter.Export(rows, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	return r.writeHistoryTable(rows)
}

func (r *Runner) writeHistoryTable(rows []repositories.StoredRequest) error {
	r.writePlain("%s\n", r.palette.Title(fmt.Sprintf("Recent requests (%d)", len(rows))))
	if len(rows) == 0 {
		return r.writePlain("%s\n", r.palette.Help("No requests recorded yet."))
	}

	for _, row := range rows {
		title := row.Title
		if title == "" {
			title = row.Locator
		}
		if err := r.writePlain("%4d  %-18s %-13s %s %s\n",
			row.Sequence,
			r.palette.State(row.State),
			row.Kind,
			title,
			r.palette.Help(formatter.Elapsed(row.StartedAt, row.FinishedAt)),
		); err != nil {
			return err
		}
		if row.Error != "" {
			r.writePlain("      %s\n", r.palette.Err(row.Error))
		}
	}
	return nil
}

// HistoryPrune deletes requests that finished before now minus --older-than.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	db, repo, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	cutoff := time.Now().Add(-cmd.Duration("older-than"))
	n, err := repo.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	r.logger.Info("history pruned", "removed", n, "cutoff", cutoff.Format(time.RFC3339))
	return r.writePlain("%s Removed %d requests\n", r.palette.OK("✓"), n)
}
