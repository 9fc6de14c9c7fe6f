// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"rota/internal/app"
	"rota/internal/config"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsSession returns true if the command requires an open,
	// synchronized session. Commands like help, version, login,
	// logout, and status return false.
	NeedsSession() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, namespace, backend).
	// sess is nil if NeedsSession() returns false.
	// args contains positional arguments after flag parsing; in is the
	// terminal input for interactive prompts.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int
}
