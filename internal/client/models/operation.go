package models

import "time"

// Action is the kind of mutation a PendingOperation replays.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// PendingOperation is a durable, not yet confirmed mutation.
//
// Payload carries the full note for create and update. For delete only
// Payload.ID and Payload.Owner are meaningful.
type PendingOperation struct {
	ID         string
	NoteID     string
	Action     Action
	Payload    Note
	EnqueuedAt time.Time
	RetryCount int
}
