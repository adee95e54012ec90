// Package remote is the client's view of the GophNotes server.
//
// Store is the transport-agnostic contract the sync engine replays against.
// Two implementations exist: HTTPStore speaks the REST layout served by the
// server's httpapi package, and GRPCStore speaks the notesrpc service. Both
// scope every call by owner and map transport failures to the sentinels in
// errors.go, so callers can use errors.Is without caring which is in use.
package remote
