// Package storage is the SQLite-backed local replica used by the sync engine.
// It combines the notes, queue and metadata repositories over one database
// and provides the transactional pairings the engine relies on.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/queue"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/google/uuid"
)

type Store struct {
	db       *sql.DB
	notes    notes.Repository
	queue    queue.Repository
	metadata metadata.Repository
}

// Open opens and migrates the database at dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{
		db:       db,
		notes:    notes.NewSQLiteRepository(db),
		queue:    queue.NewSQLiteRepository(db),
		metadata: metadata.NewSQLiteRepository(db),
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListNotes(ctx context.Context) ([]models.Note, error) {
	return s.notes.ListVisible(ctx)
}

func (s *Store) AllNotes(ctx context.Context) ([]models.Note, error) {
	return s.notes.ListAll(ctx)
}

// GetNote returns common.ErrorNotFound when the id is unknown.
func (s *Store) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return s.notes.GetByID(ctx, id)
}

func (s *Store) PutNote(ctx context.Context, n *models.Note) error {
	return s.notes.Upsert(ctx, n)
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	return s.notes.DeleteByID(ctx, id)
}

func (s *Store) AppendQueue(ctx context.Context, op *models.PendingOperation) error {
	return s.queue.Append(ctx, op)
}

func (s *Store) ListQueue(ctx context.Context) ([]models.PendingOperation, error) {
	return s.queue.List(ctx)
}

func (s *Store) RemoveQueue(ctx context.Context, opID string) error {
	return s.queue.Remove(ctx, opID)
}

func (s *Store) IncrementRetry(ctx context.Context, opID string) (int, error) {
	return s.queue.IncrementRetry(ctx, opID)
}

func (s *Store) QueueLen(ctx context.Context) (int, error) {
	return s.queue.Count(ctx)
}

func (s *Store) QueuedNoteIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.queue.NoteIDs(ctx)
}

// SaveWithOperation writes the note and appends op in one transaction, so a
// queued operation never refers to a note write that did not happen.
func (s *Store) SaveWithOperation(ctx context.Context, n *models.Note, op *models.PendingOperation) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := notes.NewSQLiteRepository(tx).Upsert(ctx, n); err != nil {
			return err
		}
		return queue.NewSQLiteRepository(tx).Append(ctx, op)
	})
	if err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	return nil
}

// ClearQueue drops every pending operation and returns the ids of the notes
// they referred to. Tombstoned notes among them are purged, since their
// deletes will never be replayed.
func (s *Store) ClearQueue(ctx context.Context) (map[string]struct{}, error) {
	return dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (map[string]struct{}, error) {
		q := queue.NewSQLiteRepository(tx)
		ids, err := q.NoteIDs(ctx)
		if err != nil {
			return nil, err
		}
		if err := q.Clear(ctx); err != nil {
			return nil, err
		}

		nr := notes.NewSQLiteRepository(tx)
		for id := range ids {
			n, err := nr.GetByID(ctx, id)
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if n.Tombstoned {
				if err := nr.DeleteByID(ctx, id); err != nil {
					return nil, err
				}
				continue
			}
			n.SyncStatus = models.StatusSynced
			if err := nr.Upsert(ctx, n); err != nil {
				return nil, err
			}
		}
		return ids, nil
	})
}

// ResolveOwner returns the owner id of this replica. A non-empty preferred
// value is persisted and returned; otherwise the stored id is used, and a new
// one is generated on first run.
func (s *Store) ResolveOwner(ctx context.Context, preferred string) (string, error) {
	return dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (string, error) {
		md := metadata.NewSQLiteRepository(tx)
		if preferred != "" {
			return preferred, md.Set(ctx, metadata.KeyOwner, []byte(preferred))
		}
		v, err := md.Get(ctx, metadata.KeyOwner)
		if err != nil {
			return "", err
		}
		if len(v) > 0 {
			return string(v), nil
		}
		owner := uuid.NewString()
		return owner, md.Set(ctx, metadata.KeyOwner, []byte(owner))
	})
}

func (s *Store) MarkReconciled(ctx context.Context, at time.Time) error {
	return s.metadata.SetTime(ctx, metadata.KeyLastReconciled, at)
}

// LastReconciled returns the zero time if no reconciliation has completed.
func (s *Store) LastReconciled(ctx context.Context) (time.Time, error) {
	return s.metadata.GetTime(ctx, metadata.KeyLastReconciled)
}
