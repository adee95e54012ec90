package notes

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// pinger is satisfied by *sql.DB.
type pinger interface {
	PingContext(ctx context.Context) error
}

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert adds n. Ids are unique across owners: an existing row with the same
// id is left untouched and reported as common.ErrorAlreadyExists.
func (r *PostgresRepository) Insert(ctx context.Context, n *models.Note) error {
	query := `
		INSERT INTO notes (id, owner, title, body, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, query,
		n.ID, n.Owner, n.Title, n.Body, n.CreatedAt.UTC(), n.ModifiedAt.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch affected {
	case 1:
		return nil
	case 0:
		return common.ErrorAlreadyExists
	default:
		return fmt.Errorf("unexpected rows affected: %d", affected)
	}
}

func (r *PostgresRepository) UpdateByID(ctx context.Context, id, owner string, f models.NoteFields) error {
	query := `
		UPDATE notes SET title = $1, body = $2, modified_at = $3
		WHERE id = $4 AND owner = $5;
	`
	if _, err := r.db.ExecContext(ctx, query, f.Title, f.Body, f.ModifiedAt.UTC(), id, owner); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id, owner string) error {
	query := `DELETE FROM notes WHERE id = $1 AND owner = $2;`
	if _, err := r.db.ExecContext(ctx, query, id, owner); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// SelectAll returns every note of owner, newest first.
func (r *PostgresRepository) SelectAll(ctx context.Context, owner string) ([]models.Note, error) {
	query := `SELECT id, owner, title, body, created_at, modified_at FROM notes
		WHERE owner = $1
		ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	result := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Owner, &n.Title, &n.Body, &n.CreatedAt, &n.ModifiedAt); err != nil {
			return nil, err
		}
		n.CreatedAt = n.CreatedAt.UTC()
		n.ModifiedAt = n.ModifiedAt.UTC()
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping checks the connection when the underlying handle supports it.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if p, ok := r.db.(pinger); ok {
		return p.PingContext(ctx)
	}
	return nil
}
