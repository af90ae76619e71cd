package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskpad/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskpad help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskpad                                  Open the interactive task list
  taskpad list [common flags]              Print the task list
  taskpad add [common flags] <text...>     Add a task
  taskpad done [common flags] <ref>        Toggle a task between open and done
  taskpad rm [common flags] <ref>          Delete a task
  taskpad login --email <addr> --password <pw>
  taskpad signup --email <addr> --password <pw>
  taskpad logout
  taskpad help
  taskpad version

A <ref> is a task number from 'taskpad list' or a unique text prefix.

Without a remote sync configuration tasks are kept on this machine only.
When firebase.json exists in the config directory and you are logged in,
the list syncs live across your devices.

Common flags:
  --config <dir>   Override config directory
  --local          Use local storage for this run, even if logged in
  --quiet          Suppress informational output
  --debug          Verbose diagnostics (written to taskpad.log)
`
