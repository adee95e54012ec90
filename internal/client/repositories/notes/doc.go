// Package notes persists notes of the local replica in SQLite.
//
// Timestamps are stored as INTEGER Unix microseconds so that ordering by
// modified_at is numeric, and tombstoned is stored as 0/1.
package notes
