package queue

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

// Repository is the durable log of pending operations.
type Repository interface {
	// Append adds op at the tail of the queue.
	Append(ctx context.Context, op *models.PendingOperation) error

	// List returns every queued operation in enqueue order.
	List(ctx context.Context) ([]models.PendingOperation, error)

	// Remove deletes the operation with the given id. Missing ids are ignored.
	Remove(ctx context.Context, id string) error

	// IncrementRetry bumps retry_count and returns the new value. It returns
	// common.ErrorNotFound when the operation is gone.
	IncrementRetry(ctx context.Context, id string) (int, error)

	// Count returns the number of queued operations.
	Count(ctx context.Context) (int, error)

	// NoteIDs returns the set of note ids referenced by queued operations.
	NoteIDs(ctx context.Context) (map[string]struct{}, error)

	// Clear drops every queued operation.
	Clear(ctx context.Context) error
}
