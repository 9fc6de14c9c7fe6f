package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"rota/internal/app"
	"rota/internal/config"
	"rota/internal/confirm"
	"rota/internal/exitcode"
)

func init() {
	Register(&ResetCmd{})
}

// ResetCmd implements the reset command. The wipe goes through the
// confirmation gate: it only runs once the user answers the prompt, or
// immediately with --yes.
type ResetCmd struct {
	yes bool
}

// SetYes skips the prompt (for testing).
func (c *ResetCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *ResetCmd) Name() string       { return "reset" }
func (c *ResetCmd) Aliases() []string  { return nil }
func (c *ResetCmd) Synopsis() string   { return "Delete all tasks and routines" }
func (c *ResetCmd) Usage() string      { return "rota reset [--yes]" }
func (c *ResetCmd) NeedsSession() bool { return true }

func (c *ResetCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *ResetCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	sess.Gate.Request(confirm.KindResetAll, "This will permanently delete all tasks and routines.")

	if !c.yes {
		req, _ := sess.Gate.Pending()
		fmt.Fprintln(out, req.Message)
		fmt.Fprint(out, "Erase everything? [y/N]: ")

		// EOF or an empty line both count as no.
		line, _ := bufio.NewReader(in).ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer != "y" && answer != "yes" {
			sess.Gate.Cancel()
			if !cfg.Quiet {
				fmt.Fprintln(out, "cancelled")
			}
			return exitcode.Success
		}
	}

	if err := sess.Gate.Confirm(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
