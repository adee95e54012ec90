package notes

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

const selectColumns = `id, owner, title, body, created_at, modified_at, sync_status, tombstoned`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, n *models.Note) error {
	query := `INSERT INTO notes (id, owner, title, body, created_at, modified_at, sync_status, tombstoned)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET owner = excluded.owner,
				title = excluded.title,
				body = excluded.body,
				created_at = excluded.created_at,
				modified_at = excluded.modified_at,
				sync_status = excluded.sync_status,
				tombstoned = excluded.tombstoned
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.Owner, n.Title, n.Body,
		n.CreatedAt.UnixMicro(), n.ModifiedAt.UnixMicro(),
		string(n.SyncStatus), boolToInt(n.Tombstoned))
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM notes WHERE id = ?`, id)

	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note[%s]: %w", id, err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListVisible(ctx context.Context) ([]models.Note, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM notes WHERE tombstoned = 0 ORDER BY modified_at DESC, id`)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.Note, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM notes ORDER BY modified_at DESC, id`)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note[%s]: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string) ([]models.Note, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	result := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note rows: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*models.Note, error) {
	var (
		n                   models.Note
		createdAt, modified int64
		status              string
		tombstoned          int
	)
	if err := s.Scan(&n.ID, &n.Owner, &n.Title, &n.Body, &createdAt, &modified, &status, &tombstoned); err != nil {
		return nil, err
	}
	n.CreatedAt = time.UnixMicro(createdAt).UTC()
	n.ModifiedAt = time.UnixMicro(modified).UTC()
	n.SyncStatus = models.SyncStatus(status)
	n.Tombstoned = tombstoned != 0
	return &n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
