package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tunegrab/internal/models"
)

// ErrRequestNotFound is returned by [RequestRepository.Get] for unknown ids.
var ErrRequestNotFound = errors.New("request not found")

// StoredRequest is a history row with its sequence number.
type StoredRequest struct {
	models.RequestRecord
	Sequence int
}

// RequestRepository persists finished requests in the requests table.
type RequestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a new RequestRepository with the given database connection
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, sequence, chat_id, kind, locator, state, title, error, started_at, finished_at`

// Create validates and inserts rec, assigning the next sequence number.
func (r *RequestRepository) Create(ctx context.Context, rec models.RequestRecord) (int, error) {
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "requests")
	if err != nil {
		return 0, fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		sequence,
		rec.ChatID,
		rec.Kind.String(),
		rec.Locator,
		rec.State.String(),
		rec.Title,
		rec.Error,
		rec.StartedAt.UTC(),
		rec.FinishedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert request: %w", err)
	}

	return sequence, nil
}

// Get retrieves a request by ID.
func (r *RequestRepository) Get(ctx context.Context, id string) (*StoredRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	return req, err
}

// Recent lists the newest requests first. A non-positive limit returns every row.
func (r *RequestRepository) Recent(ctx context.Context, limit int) ([]StoredRequest, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM requests ORDER BY sequence DESC`, limit)
}

// ByChat lists the newest requests of one chat first.
func (r *RequestRepository) ByChat(ctx context.Context, chatID int64, limit int) ([]StoredRequest, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM requests WHERE chat_id = ? ORDER BY sequence DESC`, limit, chatID)
}

// Prune deletes requests finished before cutoff and reports how many were removed.
func (r *RequestRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE finished_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune requests: %w", err)
	}
	return res.RowsAffected()
}

func (r *RequestRepository) list(ctx context.Context, query string, limit int, args ...any) ([]StoredRequest, error) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []StoredRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return requests, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(s scanner) (*StoredRequest, error) {
	var (
		req   StoredRequest
		kind  string
		state string
	)

	err := s.Scan(
		&req.ID, &req.Sequence, &req.ChatID, &kind, &req.Locator, &state,
		&req.Title, &req.Error, &req.StartedAt, &req.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}

	req.Kind = models.ParseLocatorKind(kind)
	if req.State, err = models.ParseState(state); err != nil {
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}
	return &req, nil
}

// HistoryRecorder implements tasks.Recorder using [RequestRepository].
//
// Recording the same request twice is not an error (UNIQUE constraint violations are ignored).
type HistoryRecorder struct {
	repo *RequestRepository
}

// NewHistoryRecorder creates a new HistoryRecorder with the given repository
func NewHistoryRecorder(repo *RequestRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// Record stores rec once.
func (a *HistoryRecorder) Record(ctx context.Context, rec models.RequestRecord) error {
	if _, err := a.repo.Create(ctx, rec); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}
