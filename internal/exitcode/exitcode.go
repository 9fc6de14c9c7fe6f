// Package exitcode defines exit codes for the CLI.
package exitcode

// Exit codes, one per failure class.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown item, invalid day).
	UserError = 1

	// AuthError indicates identity bootstrap failed with every method.
	AuthError = 2

	// SyncError indicates the document could not be loaded or watched.
	SyncError = 3

	// SaveError indicates a mutation applied locally but its write failed.
	SaveError = 4
)
