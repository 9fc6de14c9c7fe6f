package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"rota/internal/app"
	"rota/internal/config"
	"rota/internal/exitcode"
	"rota/internal/identity"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command: sign in once and store the
// session for future runs. With --token (or ROTA_AUTH_TOKEN set) the
// bootstrap token path is used, otherwise anonymous sign-in.
type LoginCmd struct {
	token    string
	provider identity.Provider
}

// SetProvider overrides the identity provider (for testing).
func (c *LoginCmd) SetProvider(p identity.Provider) {
	c.provider = p
}

// SetToken sets the bootstrap token (for testing).
func (c *LoginCmd) SetToken(token string) {
	c.token = token
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Sign in and store the session" }
func (c *LoginCmd) Usage() string      { return "rota login [--token <bootstrap-token>]" }
func (c *LoginCmd) NeedsSession() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.token, "token", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	if creds, ok := identity.LoadCredentials(cfg.SessionPath()); ok {
		if !cfg.Quiet {
			fmt.Fprintf(out, "already signed in as %s (run: rota logout to switch)\n", creds.UserID)
		}
		return exitcode.Success
	}

	p := c.provider
	if p == nil {
		var err error
		p, err = app.DefaultProvider(cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	token := c.token
	if token == "" {
		token = cfg.BootstrapToken
	}

	var creds identity.Credentials
	var err error
	if token != "" {
		creds, err = p.SignInWithToken(ctx, token)
	} else {
		creds, err = p.SignInAnonymous(ctx)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	if err := identity.SaveCredentials(cfg.SessionPath(), creds); err != nil {
		fmt.Fprintf(errOut, "error: failed to store session: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "signed in as %s\n", creds.UserID)
	}
	return exitcode.Success
}
