// Package models defines the server-side records of GophNotes.
package models

import "time"

// Note is the stored form of a user note. Owner scopes every lookup.
type Note struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NoteFields is the part of a note an update may overwrite.
type NoteFields struct {
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Apply copies f into n.
func (f NoteFields) Apply(n *Note) {
	n.Title = f.Title
	n.Body = f.Body
	n.ModifiedAt = f.ModifiedAt
}
