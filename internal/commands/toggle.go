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
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command: flip a task between done and
// not done.
type ToggleCmd struct {
	day string
}

// SetDay sets the target weekday (for testing).
func (c *ToggleCmd) SetDay(day string) {
	c.day = day
}

func (c *ToggleCmd) Name() string       { return "toggle" }
func (c *ToggleCmd) Aliases() []string  { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string   { return "Toggle a task done or not done" }
func (c *ToggleCmd) Usage() string      { return "rota toggle [--day <weekday>] <number>" }
func (c *ToggleCmd) NeedsSession() bool { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.day, "day", "", "")
	fs.StringVar(&c.day, "d", "", "")
}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
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
		if err := sess.Store.ToggleDailyTask(day, task.ID); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	} else {
		task, ok := taskByNumber(doc.GlobalTasks, num)
		if !ok {
			fmt.Fprintf(errOut, "error: no such task: %d\n", num)
			return exitcode.UserError
		}
		sess.Store.ToggleGlobalTask(task.ID)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
