// Package models defines the client-side records of GophNotes: notes as kept
// in the local replica and the pending operations that replay them remotely.
package models

import (
	"time"
)

// SyncStatus tracks where a note is in the sync lifecycle.
type SyncStatus string

const (
	StatusSynced  SyncStatus = "synced"
	StatusPending SyncStatus = "pending"
	StatusSyncing SyncStatus = "syncing"
	StatusFailed  SyncStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s SyncStatus) Valid() bool {
	switch s {
	case StatusSynced, StatusPending, StatusSyncing, StatusFailed:
		return true
	}
	return false
}

// Note is a single user note as stored in the local replica.
//
// Only the identity, content and timestamps travel to the remote store;
// SyncStatus and Tombstoned are local bookkeeping owned by the sync engine.
type Note struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	SyncStatus SyncStatus `json:"-"`
	Tombstoned bool       `json:"-"`
}

// Fields returns the remotely updatable part of n.
func (n Note) Fields() NoteFields {
	return NoteFields{Title: n.Title, Body: n.Body, ModifiedAt: n.ModifiedAt}
}

// NoteFields is the set of columns a remote update overwrites.
type NoteFields struct {
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NotePatch is a partial update; nil fields are left unchanged.
type NotePatch struct {
	Title *string
	Body  *string
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Body == nil
}

// Apply copies the non-nil fields of p into n.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
}
