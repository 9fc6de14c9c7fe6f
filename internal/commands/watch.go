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
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command: re-render on every state change,
// local or remote, until interrupted.
type WatchCmd struct{}

func (c *WatchCmd) Name() string       { return "watch" }
func (c *WatchCmd) Aliases() []string  { return nil }
func (c *WatchCmd) Synopsis() string   { return "Follow live changes" }
func (c *WatchCmd) Usage() string      { return "rota watch" }
func (c *WatchCmd) NeedsSession() bool { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, sess *app.Session, args []string, in io.Reader, out, errOut io.Writer) int {
	sess.OnSaveError(func(err error) {
		fmt.Fprintf(errOut, "warning: save failed: %v\n", err)
	})
	defer sess.OnSaveError(nil)

	changes := sess.Store.Changes()
	c.render(out, sess)

	for {
		select {
		case <-ctx.Done():
			return exitcode.Success
		case <-sess.SyncDone():
			if err := sess.SyncFailed(); err != nil {
				fmt.Fprintf(errOut, "error: sync error: %v\n", err)
				return exitcode.SyncError
			}
			return exitcode.Success
		case <-changes:
			fmt.Fprintln(out)
			c.render(out, sess)
		}
	}
}

func (c *WatchCmd) render(out io.Writer, sess *app.Session) {
	doc := sess.Store.Snapshot()
	if doc.Empty() {
		fmt.Fprintln(out, "(empty)")
		return
	}
	renderDocument(out, doc)
}
