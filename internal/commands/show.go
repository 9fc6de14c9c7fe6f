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
	"rota/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
// Handles both `rota` (no args) and `rota show`.
type ShowCmd struct{}

func (c *ShowCmd) Name() string       { return "show" }
func (c *ShowCmd) Aliases() []string  { return nil }
func (c *ShowCmd) Synopsis() string   { return "Show all tasks and routines" }
func (c *ShowCmd) Usage() string      { return "rota show" }
func (c *ShowCmd) NeedsSession() bool { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	doc := sess.Store.Snapshot()
	if doc.Empty() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}
	renderDocument(out, doc)
	return exitcode.Success
}

// renderDocument prints the whole document: global tasks first, then each
// weekday bucket that has tasks, then the routines with their week marks.
func renderDocument(w io.Writer, doc model.UserDocument) {
	if len(doc.GlobalTasks) > 0 {
		output.FormatSectionHeader(w, "Tasks")
		for i, task := range doc.GlobalTasks {
			output.FormatTask(w, i+1, task)
		}
	}

	for _, day := range model.Weekdays {
		tasks := doc.DailyTasks[day]
		if len(tasks) == 0 {
			continue
		}
		output.FormatSectionHeader(w, output.WeekdayTitle(day))
		for i, task := range tasks {
			output.FormatTask(w, i+1, task)
		}
	}

	if len(doc.Routines) > 0 {
		output.FormatSectionHeader(w, "Routines")
		for i, routine := range doc.Routines {
			output.FormatRoutine(w, i+1, routine)
		}
	}
}
