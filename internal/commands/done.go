package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskpad/internal/exitcode"
	"taskpad/internal/store"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command: it toggles a task between open
// and done.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task between open and done" }
func (c *DoneCmd) Usage() string     { return "taskpad done [common flags] <ref>" }
func (c *DoneCmd) NeedsStore() bool  { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	}

	snap, err := awaitReady(ctx, env.Store)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}

	target, err := resolveRef(snap.Tasks, args[0])
	if err != nil {
		if errors.Is(err, ErrRefAmbiguous) {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	was := target.Completed
	env.Store.Toggle(target.ID)

	_, err = await(ctx, env.Store, func(s store.Snapshot) bool {
		for _, t := range s.Tasks {
			if t.ID == target.ID {
				return t.Completed != was
			}
		}
		// Deleted concurrently; nothing left to toggle.
		return true
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}

	if !env.Cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
