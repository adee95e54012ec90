package notes

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

// Repository stores notes in the local replica.
type Repository interface {
	// Upsert inserts the note or overwrites every column of an existing one.
	Upsert(ctx context.Context, note *models.Note) error

	// GetByID returns the note, tombstoned or not. It returns
	// common.ErrorNotFound when no row exists.
	GetByID(ctx context.Context, id string) (*models.Note, error)

	// ListVisible returns notes that are not tombstoned, newest modification first.
	ListVisible(ctx context.Context) ([]models.Note, error)

	// ListAll returns every stored note including tombstones.
	ListAll(ctx context.Context) ([]models.Note, error)

	// DeleteByID physically removes a note. Deleting a missing id is not an error.
	DeleteByID(ctx context.Context, id string) error
}
