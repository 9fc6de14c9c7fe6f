package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"rota/internal/app"
	"rota/internal/config"
	"rota/internal/exitcode"
	"rota/internal/model"
)

func init() {
	Register(&CheckCmd{})
}

// CheckCmd implements the check command: flip a routine's completion for
// one weekday. Without --day it targets today.
type CheckCmd struct {
	day string
}

// SetDay sets the target weekday (for testing).
func (c *CheckCmd) SetDay(day string) {
	c.day = day
}

func (c *CheckCmd) Name() string       { return "check" }
func (c *CheckCmd) Aliases() []string  { return []string{"uncheck"} }
func (c *CheckCmd) Synopsis() string   { return "Check or uncheck a routine for a day" }
func (c *CheckCmd) Usage() string      { return "rota check [--day <weekday>] <number>" }
func (c *CheckCmd) NeedsSession() bool { return true }

func (c *CheckCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.day, "day", "", "")
	fs.StringVar(&c.day, "d", "", "")
}

func (c *CheckCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	num, err := ParseItemNumber(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	day, hasDay, err := parseDayFlag(c.day)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !hasDay {
		day = model.FromTime(now())
	}

	doc := sess.Store.Snapshot()
	routine, ok := routineByNumber(doc.Routines, num)
	if !ok {
		fmt.Fprintf(errOut, "error: no such routine: %d\n", num)
		return exitcode.UserError
	}
	if err := sess.Store.ToggleRoutine(routine.ID, day); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
