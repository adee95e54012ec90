package engine

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

var (
	// ErrNotFound is returned for notes that are absent or tombstoned.
	ErrNotFound = errors.New("note not found")
	// ErrReconcile matches every *ReconcileError.
	ErrReconcile      = errors.New("reconciliation failed")
	ErrSyncInProgress = errors.New("sync in progress")
	ErrClosed         = errors.New("engine closed")
)

// ReplayError is a failed remote replay of one queued operation. It is
// logged and counted by the drain, never returned from it.
type ReplayError struct {
	OpID   string
	NoteID string
	Action models.Action
	Err    error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay %s of note %s (op %s): %v", e.Action, e.NoteID, e.OpID, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// ReconcileError means the remote set could not be fetched or the local
// replica could not be read. The local replica is left unchanged.
type ReconcileError struct {
	Err error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("%v: %v", ErrReconcile, e.Err)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

func (e *ReconcileError) Is(target error) bool { return target == ErrReconcile }
