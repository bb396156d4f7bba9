// Package cli provides the interactive keepsync client.
//
// It wires configuration, the local store, the remote gateway, the
// connectivity watcher, the background scheduler and the sync coordinator,
// then runs a REPL over them. Records can be edited while offline; the
// periodic sync job pushes them once the remote answers again.
//
// The REPL is started with App.Run(ctx), which blocks until the user exits.
package cli
