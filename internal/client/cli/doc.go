// Package cli provides the interactive GophNotes command-line client.
//
// It wires configuration, local storage, the remote store, the sync engine
// and an interactive REPL that works the same online and offline. A
// background watcher pings the server and flips the engine between online
// and offline; every change made offline is queued and replayed when the
// server comes back.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
