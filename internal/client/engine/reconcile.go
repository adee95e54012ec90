package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// Merge joins local and remote by id. For an id present in both, the copy
// with the strictly later ModifiedAt wins and the local copy wins ties. Every
// result is marked synced. The result is ordered by ModifiedAt, newest first,
// then by id.
func Merge(local, remote []models.Note) []models.Note {
	byID := make(map[string]models.Note, len(local)+len(remote))
	for _, n := range remote {
		n.Tombstoned = false
		byID[n.ID] = n
	}
	for _, l := range local {
		if r, ok := byID[l.ID]; ok && r.ModifiedAt.After(l.ModifiedAt) {
			continue
		}
		byID[l.ID] = l
	}

	out := make([]models.Note, 0, len(byID))
	for _, n := range byID {
		n.SyncStatus = models.StatusSynced
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b models.Note) int {
		if c := b.ModifiedAt.Compare(a.ModifiedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// FetchAndMergeNotes pulls the owner's remote notes, merges them with the
// whole local replica and writes the result back.
//
// Notes with queued operations keep their local status and tombstone flag.
// A tombstone with no queued delete is purged when the remote has no copy
// and replaced by the remote copy otherwise. A note that changes locally
// while the merge runs is left as it is.
//
// Failures are returned as *ReconcileError. When the remote fetch fails
// nothing is written.
func (e *Engine) FetchAndMergeNotes(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	remoteNotes, err := e.remote.SelectAll(rctx, e.owner)
	cancel()
	if err != nil {
		return &ReconcileError{Err: fmt.Errorf("fetch remote notes: %w", err)}
	}

	localNotes, err := e.local.AllNotes(ctx)
	if err != nil {
		return &ReconcileError{Err: fmt.Errorf("load local notes: %w", err)}
	}
	queued, err := e.local.QueuedNoteIDs(ctx)
	if err != nil {
		return &ReconcileError{Err: fmt.Errorf("load queue: %w", err)}
	}

	localByID := make(map[string]models.Note, len(localNotes))
	for _, n := range localNotes {
		localByID[n.ID] = n
	}
	remoteByID := make(map[string]models.Note, len(remoteNotes))
	for _, n := range remoteNotes {
		remoteByID[n.ID] = n
	}

	changed := 0
	for _, m := range Merge(localNotes, remoteNotes) {
		l, hasLocal := localByID[m.ID]
		r, hasRemote := remoteByID[m.ID]
		_, isQueued := queued[m.ID]

		want, purge := m, false
		switch {
		case hasLocal && isQueued:
			want.SyncStatus = l.SyncStatus
			if want.SyncStatus == models.StatusSyncing || !want.SyncStatus.Valid() {
				want.SyncStatus = models.StatusPending
			}
			want.Tombstoned = l.Tombstoned
		case hasLocal && l.Tombstoned && !hasRemote:
			purge = true
		case hasLocal && l.Tombstoned:
			// No delete is queued, so nothing will remove the remote copy.
			// It comes back even if the tombstone is newer; the one
			// exception to last write wins.
			want = r
			want.SyncStatus = models.StatusSynced
		}

		var snapshot *models.Note
		if hasLocal {
			snapshot = &l
		}
		ok, err := e.writeBack(ctx, snapshot, want, purge)
		if err != nil {
			return &ReconcileError{Err: fmt.Errorf("write back note[%s]: %w", m.ID, err)}
		}
		if ok {
			changed++
		}
	}

	if err := e.local.MarkReconciled(ctx, e.stamp()); err != nil {
		e.log.Error(ctx, "failed to record reconciliation time", "error", err)
	}
	e.log.Debug(ctx, "reconciled", "local", len(localNotes), "remote", len(remoteNotes), "changed", changed)
	if changed > 0 {
		e.publish(NotesChanged{At: e.stamp()})
	}
	return nil
}

// writeBack stores want (or deletes it when purge is set) under the note's
// lock, unless the stored note no longer matches snapshot. A nil snapshot
// means the note was absent. It reports whether anything was written.
func (e *Engine) writeBack(ctx context.Context, snapshot *models.Note, want models.Note, purge bool) (bool, error) {
	unlock := e.locks.Lock(want.ID)
	defer unlock()

	cur, err := e.local.GetNote(ctx, want.ID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		if snapshot != nil {
			return false, nil
		}
	case err != nil:
		return false, err
	default:
		if snapshot == nil || !sameNote(*cur, *snapshot) {
			return false, nil
		}
	}

	if purge {
		return true, e.local.DeleteNote(ctx, want.ID)
	}
	if snapshot != nil && sameNote(*snapshot, want) {
		return false, nil
	}
	return true, e.local.PutNote(ctx, &want)
}

func sameNote(a, b models.Note) bool {
	return a.ID == b.ID &&
		a.Owner == b.Owner &&
		a.Title == b.Title &&
		a.Body == b.Body &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.ModifiedAt.Equal(b.ModifiedAt) &&
		a.SyncStatus == b.SyncStatus &&
		a.Tombstoned == b.Tombstoned
}
