package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"rota/internal/app"
	"rota/internal/config"
	"rota/internal/exitcode"
	"rota/internal/model"
	"rota/internal/output"
)

func init() {
	Register(&TodayCmd{})
}

// TodayCmd implements the today command: the current weekday's tasks plus
// every routine with its check state for that day.
type TodayCmd struct{}

// now returns the current time. Swapped in tests.
var now = time.Now

func (c *TodayCmd) Name() string       { return "today" }
func (c *TodayCmd) Aliases() []string  { return nil }
func (c *TodayCmd) Synopsis() string   { return "Show today's tasks and routines" }
func (c *TodayCmd) Usage() string      { return "rota today" }
func (c *TodayCmd) NeedsSession() bool { return true }

func (c *TodayCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TodayCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	doc := sess.Store.Snapshot()
	day := model.FromTime(now())

	tasks := doc.DailyTasks[day]
	if len(tasks) == 0 && len(doc.Routines) == 0 {
		if !cfg.Quiet {
			fmt.Fprintf(out, "nothing for %s\n", day)
		}
		return exitcode.Success
	}

	if len(tasks) > 0 {
		output.FormatSectionHeader(out, output.WeekdayTitle(day))
		for i, task := range tasks {
			output.FormatTask(out, i+1, task)
		}
	}
	if len(doc.Routines) > 0 {
		output.FormatSectionHeader(out, "Routines")
		for i, routine := range doc.Routines {
			output.FormatRoutineForDay(out, i+1, routine, day)
		}
	}
	return exitcode.Success
}
