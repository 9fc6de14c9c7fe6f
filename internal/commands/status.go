package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"rota/internal/app"
	"rota/internal/config"
	"rota/internal/exitcode"
	"rota/internal/gateway"
	"rota/internal/identity"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command. It reports the stored session
// and configuration without touching the network.
type StatusCmd struct{}

func (c *StatusCmd) Name() string       { return "status" }
func (c *StatusCmd) Aliases() []string  { return nil }
func (c *StatusCmd) Synopsis() string   { return "Show session and backend status" }
func (c *StatusCmd) Usage() string      { return "rota status" }
func (c *StatusCmd) NeedsSession() bool { return false }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	fmt.Fprintf(out, "backend:    %s\n", cfg.Backend)
	fmt.Fprintf(out, "namespace:  %s\n", cfg.Namespace)
	if cfg.Backend == config.BackendRelay {
		fmt.Fprintf(out, "relay:      %s\n", cfg.RelayURL)
	}

	creds, ok := identity.LoadCredentials(cfg.SessionPath())
	if !ok {
		fmt.Fprintln(out, "signed in:  no")
		return exitcode.Success
	}
	fmt.Fprintln(out, "signed in:  yes")
	fmt.Fprintf(out, "user:       %s\n", creds.UserID)
	fmt.Fprintf(out, "document:   %s\n", gateway.UserDocument(cfg.Namespace, creds.UserID).Path())
	return exitcode.Success
}
