package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"rota/internal/app"
	"rota/internal/config"
	"rota/internal/exitcode"
	"rota/internal/state"
)

func init() {
	Register(&AddRoutineCmd{})
}

// AddRoutineCmd implements the addroutine command. A new routine starts
// unchecked on every weekday.
type AddRoutineCmd struct{}

func (c *AddRoutineCmd) Name() string       { return "addroutine" }
func (c *AddRoutineCmd) Aliases() []string  { return nil }
func (c *AddRoutineCmd) Synopsis() string   { return "Add a weekly routine" }
func (c *AddRoutineCmd) Usage() string      { return "rota addroutine <text...>" }
func (c *AddRoutineCmd) NeedsSession() bool { return true }

func (c *AddRoutineCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddRoutineCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(errOut, "error: text required")
		return exitcode.UserError
	}

	if err := sess.Store.AddRoutine(text); err != nil {
		if errors.Is(err, state.ErrEmptyText) {
			fmt.Fprintln(errOut, "error: text required")
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
