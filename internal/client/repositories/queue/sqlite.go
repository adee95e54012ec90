package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, op *models.PendingOperation) error {
	blob, err := encodePayload(op.Payload)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sync_queue (id, note_id, action, payload, enqueued_at, retry_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, op.ID, op.NoteID, string(op.Action), blob, op.EnqueuedAt.UnixMicro(), op.RetryCount)
	if err != nil {
		return fmt.Errorf("failed to append operation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.PendingOperation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, note_id, action, payload, enqueued_at, retry_count
		FROM sync_queue
		ORDER BY enqueued_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	result := make([]models.PendingOperation, 0)
	for rows.Next() {
		var (
			op       models.PendingOperation
			action   string
			blob     []byte
			enqueued int64
		)
		if err := rows.Scan(&op.ID, &op.NoteID, &action, &blob, &enqueued, &op.RetryCount); err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}
		op.Action = models.Action(action)
		op.EnqueuedAt = time.UnixMicro(enqueued).UTC()
		if op.Payload, err = decodePayload(blob); err != nil {
			return nil, fmt.Errorf("operation %s: %w", op.ID, err)
		}
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operation rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove operation[%s]: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) IncrementRetry(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		UPDATE sync_queue SET retry_count = retry_count + 1
		WHERE id = ?
		RETURNING retry_count
	`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to bump retry count[%s]: %w", id, err)
	}
	return n, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) NoteIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT note_id FROM sync_queue`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued note ids: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan note id: %w", err)
		}
		result[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note ids: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}
