// Package cli provides the interactive huntlog command-line client.
//
// It wires configuration, session storage, the authenticated HTTP client,
// the auth service and the view router, then runs a REPL on top of them.
// Each command belongs to a view: the command first navigates there and the
// route guards decide whether it may run. Anonymous users asking for the
// dashboard land on the login view and are brought back after logging in.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
