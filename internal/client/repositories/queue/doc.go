// Package queue persists the pending-operation log in SQLite.
//
// Operations are ordered by enqueued_at and then by rowid, so entries
// enqueued within the same microsecond keep their insertion order. The note
// payload is stored as a msgpack blob.
package queue
