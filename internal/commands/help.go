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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "rota help" }
func (c *HelpCmd) NeedsSession() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  rota                                        Show all tasks and routines
  rota show                                   Same as plain rota
  rota today                                  Today's tasks and routines
  rota add [common flags] [--day <weekday>] <text...>
  rota toggle [common flags] [--day <weekday>] <number>
  rota rm [common flags] [--day <weekday>] <number>
  rota addroutine [common flags] <text...>
  rota check [common flags] [--day <weekday>] <number>
  rota rmroutine [common flags] <number>
  rota reset [common flags] [--yes]
  rota watch [common flags]
  rota status [common flags]
  rota login [common flags] [--token <bootstrap-token>]
  rota logout [common flags]
  rota help
  rota version

Numbers refer to the 1-based positions printed by show and today.
Weekdays are monday through sunday; without --day, check targets today.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
