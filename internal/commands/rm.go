package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"rota/internal/app"
	"rota/internal/config"
	"rota/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	day string
}

// SetDay sets the target weekday (for testing).
func (c *RmCmd) SetDay(day string) {
	c.day = day
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return nil }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "rota rm [--day <weekday>] <number>" }
func (c *RmCmd) NeedsSession() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.day, "day", "", "")
	fs.StringVar(&c.day, "d", "", "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
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

	doc := sess.Store.Snapshot()
	if hasDay {
		task, ok := taskByNumber(doc.DailyTasks[day], num)
		if !ok {
			fmt.Fprintf(errOut, "error: no such task on %s: %d\n", day, num)
			return exitcode.UserError
		}
		if err := sess.Store.DeleteDailyTask(day, task.ID); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	} else {
		task, ok := taskByNumber(doc.GlobalTasks, num)
		if !ok {
			fmt.Fprintf(errOut, "error: no such task: %d\n", num)
			return exitcode.UserError
		}
		sess.Store.DeleteGlobalTask(task.ID)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
