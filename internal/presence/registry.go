// Package presence tracks which users currently hold a live connection.
package presence

import "context"

// Registry maps a user to its active connection identifier. At most one
// connection per user is tracked: a new Register for the same user replaces
// the previous mapping (last connect wins).
type Registry interface {
	// Register binds userID to connID, overwriting any prior binding.
	Register(ctx context.Context, userID int, connID string) error

	// Unregister removes the binding for userID, but only if connID still
	// matches the registered connection. A stale disconnect from a replaced
	// connection must not knock the fresh one offline.
	Unregister(ctx context.Context, userID int, connID string) error

	// Lookup returns the connection bound to userID, if any.
	Lookup(ctx context.Context, userID int) (string, bool, error)

	// Snapshot returns the IDs of all currently registered users.
	Snapshot(ctx context.Context) ([]int, error)
}
