// Package notes stores server-side notes. PostgresRepository keeps them in
// a SQL table and S3Repository keeps one JSON object per note in a bucket.
package notes

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository is the owner-scoped note store behind both transports.
//
// Insert returns common.ErrorAlreadyExists when the id is taken for the
// owner. UpdateByID and DeleteByID are no-ops when nothing matches.
// SelectAll orders by creation time, newest first.
type Repository interface {
	SelectAll(ctx context.Context, owner string) ([]models.Note, error)
	Insert(ctx context.Context, n *models.Note) error
	UpdateByID(ctx context.Context, id, owner string, f models.NoteFields) error
	DeleteByID(ctx context.Context, id, owner string) error
	Ping(ctx context.Context) error
}
