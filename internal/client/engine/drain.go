package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/remote"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// Report summarises one drain.
type Report struct {
	// Skipped is set when nothing ran: offline, closed, or another drain
	// was in flight.
	Skipped  bool
	Replayed int
	Failed   int
	// Deferred counts operations not attempted because an earlier operation
	// on the same note failed in this pass.
	Deferred int
}

// Drain is the handle of a background drain started by a mutation.
type Drain struct {
	done   chan struct{}
	report Report
	err    error
}

func finishedDrain(r Report) *Drain {
	d := &Drain{done: make(chan struct{}), report: r}
	close(d.done)
	return d
}

// Wait blocks until the drain finishes or ctx is done. A nil Drain reports
// a skipped run.
func (d *Drain) Wait(ctx context.Context) (Report, error) {
	if d == nil {
		return Report{Skipped: true}, nil
	}
	select {
	case <-d.done:
		return d.report, d.err
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}

// Done is closed when the drain finishes.
func (d *Drain) Done() <-chan struct{} { return d.done }

func (e *Engine) startDrain() *Drain {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.Online() || e.closed.Load() {
		return finishedDrain(Report{Skipped: true})
	}
	d := &Drain{done: make(chan struct{})}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(d.done)
		d.report, d.err = e.TriggerSync(e.ctx)
		if d.err != nil {
			e.log.Warn(e.ctx, "background sync failed", "error", d.err)
		}
	}()
	return d
}

// TriggerSync drains the queue if the engine is online and no drain is
// running; otherwise it returns a skipped Report.
func (e *Engine) TriggerSync(ctx context.Context) (Report, error) {
	if !e.Online() {
		return Report{Skipped: true}, nil
	}
	return e.ProcessSyncQueue(ctx)
}

// ProcessSyncQueue replays every queued operation in enqueue order and then
// reconciles with the remote store. A concurrent call returns a skipped
// Report at once. Replay failures are counted in the Report; the returned
// error reports local storage failures and reconciliation failures.
func (e *Engine) ProcessSyncQueue(ctx context.Context) (Report, error) {
	if !e.draining.CompareAndSwap(false, true) {
		return Report{Skipped: true}, nil
	}
	defer e.draining.Store(false)

	e.publish(SyncStarted{At: e.stamp()})

	report, drainErr := e.replayQueue(ctx)
	recErr := e.FetchAndMergeNotes(ctx)
	err := errors.Join(drainErr, recErr)

	e.log.Info(ctx, "sync finished",
		"replayed", report.Replayed, "failed", report.Failed, "deferred", report.Deferred, "error", err)
	e.publish(SyncFinished{At: e.stamp(), Report: report, Err: err})
	return report, err
}

func (e *Engine) replayQueue(ctx context.Context) (Report, error) {
	var report Report

	ops, err := e.local.ListQueue(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list queue: %w", err)
	}
	if len(ops) == 0 {
		return report, nil
	}

	touched := make([]string, 0, len(ops))
	seen := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		if _, ok := seen[op.NoteID]; !ok {
			seen[op.NoteID] = struct{}{}
			touched = append(touched, op.NoteID)
		}
	}
	for _, id := range touched {
		e.transition(ctx, id, func(n *models.Note) bool {
			if n.SyncStatus == models.StatusSyncing {
				return false
			}
			n.SyncStatus = models.StatusSyncing
			return true
		})
	}

	blocked := make(map[string]int)
	for _, op := range ops {
		if ctx.Err() != nil {
			break
		}
		if _, ok := blocked[op.NoteID]; ok {
			report.Deferred++
			continue
		}

		if err := e.replay(ctx, op); err != nil {
			rerr := &ReplayError{OpID: op.ID, NoteID: op.NoteID, Action: op.Action, Err: err}
			e.log.Warn(ctx, "replay failed", "op", op.ID, "note", op.NoteID, "action", op.Action, "error", rerr)

			retries, ierr := e.local.IncrementRetry(ctx, op.ID)
			if ierr != nil {
				e.log.Error(ctx, "failed to record retry", "op", op.ID, "error", ierr)
				retries = op.RetryCount + 1
			}
			blocked[op.NoteID] = retries
			report.Failed++
			continue
		}

		if err := e.local.RemoveQueue(ctx, op.ID); err != nil {
			// The op replays again next pass; every replay is idempotent.
			e.log.Error(ctx, "failed to dequeue replayed operation", "op", op.ID, "error", err)
			blocked[op.NoteID] = op.RetryCount
			report.Failed++
			continue
		}
		if op.Action == models.ActionDelete {
			e.purgeTombstone(ctx, op.NoteID)
		}
		report.Replayed++
		e.log.Debug(ctx, "operation replayed", "op", op.ID, "note", op.NoteID, "action", op.Action)
	}

	// Status writes must land even when ctx was cancelled mid-pass.
	fctx := context.WithoutCancel(ctx)
	for _, id := range touched {
		retries, failed := blocked[id]
		e.transition(fctx, id, func(n *models.Note) bool {
			if n.SyncStatus != models.StatusSyncing {
				return false
			}
			switch {
			case failed && retries >= e.maxRetries:
				n.SyncStatus = models.StatusFailed
			case failed || ctx.Err() != nil:
				n.SyncStatus = models.StatusPending
			default:
				n.SyncStatus = models.StatusSynced
			}
			return true
		})
	}
	return report, nil
}

func (e *Engine) replay(ctx context.Context, op models.PendingOperation) error {
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	owner := op.Payload.Owner
	if owner == "" {
		owner = e.owner
	}

	switch op.Action {
	case models.ActionCreate:
		n := op.Payload
		n.Owner = owner
		err := e.remote.Insert(ctx, n)
		if errors.Is(err, remote.ErrAlreadyExists) {
			// An earlier attempt landed but its response was lost.
			return e.remote.UpdateByID(ctx, n.ID, owner, n.Fields())
		}
		return err
	case models.ActionUpdate:
		return e.remote.UpdateByID(ctx, op.NoteID, owner, op.Payload.Fields())
	case models.ActionDelete:
		return e.remote.DeleteByID(ctx, op.NoteID, owner)
	default:
		return fmt.Errorf("unknown action %q", op.Action)
	}
}

// transition applies fn to the stored note under its lock and writes it back
// when fn reports a change. Missing notes are ignored.
func (e *Engine) transition(ctx context.Context, id string, fn func(n *models.Note) bool) {
	unlock := e.locks.Lock(id)
	defer unlock()

	n, err := e.local.GetNote(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return
	}
	if err != nil {
		e.log.Error(ctx, "failed to load note", "note", id, "error", err)
		return
	}
	if !fn(n) {
		return
	}
	if err := e.local.PutNote(ctx, n); err != nil {
		e.log.Error(ctx, "failed to update note status", "note", id, "error", err)
		return
	}
	e.publish(NotesChanged{At: e.stamp(), NoteID: id})
}

func (e *Engine) purgeTombstone(ctx context.Context, id string) {
	unlock := e.locks.Lock(id)
	defer unlock()

	n, err := e.local.GetNote(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			e.log.Error(ctx, "failed to load note", "note", id, "error", err)
		}
		return
	}
	if !n.Tombstoned {
		return
	}
	if err := e.local.DeleteNote(ctx, id); err != nil {
		e.log.Error(ctx, "failed to purge tombstone", "note", id, "error", err)
		return
	}
	e.publish(NotesChanged{At: e.stamp(), NoteID: id})
}
