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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	day string
}

// SetDay sets the target weekday (for testing).
func (c *AddCmd) SetDay(day string) {
	c.day = day
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return nil }
func (c *AddCmd) Synopsis() string   { return "Add a task" }
func (c *AddCmd) Usage() string      { return "rota add [--day <weekday>] <text...>" }
func (c *AddCmd) NeedsSession() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.day, "day", "", "")
	fs.StringVar(&c.day, "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(errOut, "error: text required")
		return exitcode.UserError
	}

	day, hasDay, err := parseDayFlag(c.day)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if hasDay {
		err = sess.Store.AddDailyTask(day, text)
	} else {
		err = sess.Store.AddGlobalTask(text)
	}
	if err != nil {
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
