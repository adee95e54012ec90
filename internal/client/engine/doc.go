// Package engine is the offline sync engine of the GophNotes client.
//
// Every mutation is applied to the local replica first, together with a
// durable queue entry, and returns at once. The queue is drained against the
// remote store whenever the engine is online: operations are replayed in
// enqueue order, failures stay queued for the next pass, and every pass ends
// with a full reconciliation in which the copy with the later modified_at
// wins (the local copy wins ties).
//
// An Engine is safe for concurrent use. At most one drain runs at a time and
// a trigger that arrives while one is running is dropped. Mutations and drain
// status transitions on the same note id are serialised.
//
// Observers receive Events through a Subscription. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
package engine
