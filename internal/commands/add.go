package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskpad/internal/exitcode"
	"taskpad/internal/store"
	"taskpad/internal/task"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Add a task" }
func (c *AddCmd) Usage() string     { return "taskpad add [common flags] <text...>" }
func (c *AddCmd) NeedsStore() bool  { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	text := strings.Join(args, " ")

	snap, err := awaitReady(ctx, env.Store)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	before := len(snap.Tasks)

	if err := env.Store.Add(text); err != nil {
		var verr *task.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(errOut, "error: task text required")
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}

	// Wait for the task to land: immediately in local mode, via the
	// subscription echo in remote mode.
	_, err = await(ctx, env.Store, func(s store.Snapshot) bool {
		return !s.Loading && len(s.Tasks) > before
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: task not confirmed: %s\n", err)
		return exitcode.BackendError
	}

	if !env.Cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
