package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// AddNote stores a new pending note with a create operation and, when
// online, starts a background drain. It does not wait for the remote store.
func (e *Engine) AddNote(ctx context.Context, title, body string) (models.Note, *Drain, error) {
	now := e.stamp()
	n := models.Note{
		ID:         e.newID(),
		Owner:      e.owner,
		Title:      title,
		Body:       body,
		CreatedAt:  now,
		ModifiedAt: now,
		SyncStatus: models.StatusPending,
	}

	unlock := e.locks.Lock(n.ID)
	err := e.local.SaveWithOperation(ctx, &n, e.newOperation(n, models.ActionCreate))
	unlock()
	if err != nil {
		return models.Note{}, nil, fmt.Errorf("add note: %w", err)
	}

	e.log.Debug(ctx, "note added", "note", n.ID)
	e.publish(NotesChanged{At: now, NoteID: n.ID})
	return n, e.startDrain(), nil
}

// UpdateNote applies patch to a visible note and queues an update carrying
// the full note. It returns ErrNotFound for absent or tombstoned notes.
func (e *Engine) UpdateNote(ctx context.Context, id string, patch models.NotePatch) (models.Note, *Drain, error) {
	unlock := e.locks.Lock(id)

	n, err := e.visibleNote(ctx, id)
	if err != nil {
		unlock()
		return models.Note{}, nil, err
	}

	patch.Apply(n)
	n.ModifiedAt = e.stamp()
	n.SyncStatus = models.StatusPending

	err = e.local.SaveWithOperation(ctx, n, e.newOperation(*n, models.ActionUpdate))
	unlock()
	if err != nil {
		return models.Note{}, nil, fmt.Errorf("update note[%s]: %w", id, err)
	}

	e.log.Debug(ctx, "note updated", "note", id)
	e.publish(NotesChanged{At: n.ModifiedAt, NoteID: id})
	return *n, e.startDrain(), nil
}

// DeleteNote tombstones a note and queues its remote delete. The note stays
// in the local store, hidden, until the delete is confirmed. Deleting an
// absent or already tombstoned note does nothing.
func (e *Engine) DeleteNote(ctx context.Context, id string) (*Drain, error) {
	unlock := e.locks.Lock(id)

	n, err := e.visibleNote(ctx, id)
	if errors.Is(err, ErrNotFound) {
		unlock()
		return finishedDrain(Report{Skipped: true}), nil
	}
	if err != nil {
		unlock()
		return nil, err
	}

	n.Tombstoned = true
	n.SyncStatus = models.StatusPending
	payload := models.Note{ID: n.ID, Owner: n.Owner}

	err = e.local.SaveWithOperation(ctx, n, e.newOperation(payload, models.ActionDelete))
	unlock()
	if err != nil {
		return nil, fmt.Errorf("delete note[%s]: %w", id, err)
	}

	e.log.Debug(ctx, "note deleted", "note", id)
	e.publish(NotesChanged{At: e.stamp(), NoteID: id})
	return e.startDrain(), nil
}

// ClearQueue discards every pending operation and marks the affected notes
// synced. Pending deletes are abandoned and their tombstones purged. It
// fails with ErrSyncInProgress while a drain runs.
func (e *Engine) ClearQueue(ctx context.Context) (int, error) {
	if !e.draining.CompareAndSwap(false, true) {
		return 0, ErrSyncInProgress
	}
	defer e.draining.Store(false)

	ids, err := e.local.ClearQueue(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}

	e.log.Warn(ctx, "sync queue cleared", "notes", len(ids))
	if len(ids) > 0 {
		e.publish(NotesChanged{At: e.stamp()})
	}
	return len(ids), nil
}

func (e *Engine) newOperation(payload models.Note, action models.Action) *models.PendingOperation {
	payload.SyncStatus = ""
	payload.Tombstoned = false
	return &models.PendingOperation{
		ID:         e.newID(),
		NoteID:     payload.ID,
		Action:     action,
		Payload:    payload,
		EnqueuedAt: e.stamp(),
	}
}

// visibleNote loads id and maps absent or tombstoned notes to ErrNotFound.
func (e *Engine) visibleNote(ctx context.Context, id string) (*models.Note, error) {
	n, err := e.local.GetNote(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("note[%s]: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load note[%s]: %w", id, err)
	}
	if n.Tombstoned {
		return nil, fmt.Errorf("note[%s]: %w", id, ErrNotFound)
	}
	return n, nil
}
