package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskpad/internal/exitcode"
	"taskpad/internal/session"
)

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in for multi-device sync" }
func (c *LoginCmd) Usage() string {
	return "taskpad login [common flags] --email <addr> --password <pw>"
}
func (c *LoginCmd) NeedsStore() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runCredentialCmd(ctx, env, c.email, c.password, env.Gateway.Login, "logged in", out, errOut)
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	email    string
	password string
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return nil }
func (c *SignupCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *SignupCmd) Usage() string {
	return "taskpad signup [common flags] --email <addr> --password <pw>"
}
func (c *SignupCmd) NeedsStore() bool { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runCredentialCmd(ctx, env, c.email, c.password, env.Gateway.Signup, "account created", out, errOut)
}

// runCredentialCmd is the shared implementation for login and signup.
func runCredentialCmd(ctx context.Context, env *Env, email, password string,
	op func(context.Context, string, string) error, okMsg string, out, errOut io.Writer) int {

	if email == "" || password == "" {
		fmt.Fprintln(errOut, "error: --email and --password are required")
		return exitcode.UserError
	}

	if cur := env.Gateway.Current(); cur != nil {
		fmt.Fprintf(errOut, "error: already logged in as %s (run: taskpad logout)\n", cur.Email)
		return exitcode.UserError
	}

	if err := op(ctx, email, password); err != nil {
		if errors.Is(err, session.ErrRemoteDisabled) {
			fmt.Fprintf(errOut, "error: remote sync is not configured\n\n")
			fmt.Fprintln(errOut, "To sync tasks across devices, create a Firebase project with")
			fmt.Fprintln(errOut, "Firestore and email/password authentication enabled, then save")
			fmt.Fprintln(errOut, "its settings as:")
			fmt.Fprintln(errOut, "")
			fmt.Fprintf(errOut, "  %s\n", env.Cfg.FirebasePath())
			fmt.Fprintln(errOut, "")
			fmt.Fprintln(errOut, `  {"project_id": "<project>", "api_key": "<web api key>"}`)
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}

	if !env.Cfg.Quiet {
		fmt.Fprintln(out, okMsg)
	}
	return exitcode.Success
}
