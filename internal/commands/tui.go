package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskpad/internal/exitcode"
	"taskpad/internal/tui"
)

func init() {
	Register(&TuiCmd{})
}

// TuiCmd runs the interactive task list. It is the default command when
// taskpad is invoked without arguments.
type TuiCmd struct{}

func (c *TuiCmd) Name() string      { return "tui" }
func (c *TuiCmd) Aliases() []string { return nil }
func (c *TuiCmd) Synopsis() string  { return "Open the interactive task list" }
func (c *TuiCmd) Usage() string     { return "taskpad [tui] [common flags]" }
func (c *TuiCmd) NeedsStore() bool  { return true }

func (c *TuiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TuiCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	remote := env.Cfg.RemoteEnabled()
	if err := tui.Run(ctx, env.Store, env.Gateway, remote); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
