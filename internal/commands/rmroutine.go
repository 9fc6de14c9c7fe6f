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
	Register(&RmRoutineCmd{})
}

// RmRoutineCmd implements the rmroutine command.
type RmRoutineCmd struct{}

func (c *RmRoutineCmd) Name() string       { return "rmroutine" }
func (c *RmRoutineCmd) Aliases() []string  { return nil }
func (c *RmRoutineCmd) Synopsis() string   { return "Delete a routine" }
func (c *RmRoutineCmd) Usage() string      { return "rota rmroutine <number>" }
func (c *RmRoutineCmd) NeedsSession() bool { return true }

func (c *RmRoutineCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmRoutineCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	num, err := ParseItemNumber(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	doc := sess.Store.Snapshot()
	routine, ok := routineByNumber(doc.Routines, num)
	if !ok {
		fmt.Fprintf(errOut, "error: no such routine: %d\n", num)
		return exitcode.UserError
	}
	sess.Store.DeleteRoutine(routine.ID)

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
