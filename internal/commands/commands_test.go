package commands_test

import (
	"bytes"
	"context"
	"flag"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"taskpad/internal/commands"
	"taskpad/internal/config"
	"taskpad/internal/exitcode"
	"taskpad/internal/session"
	"taskpad/internal/store"
	"taskpad/internal/task"
	"taskpad/internal/testutil"
)

// newEnv builds an env over an in-memory local store seeded with tasks.
func newEnv(t *testing.T, gw session.Gateway, seed ...task.Task) (*commands.Env, *testutil.FakeLocal) {
	t.Helper()
	local := testutil.NewFakeLocal(seed...)
	st := store.New(zap.NewNop(), gw, local, nil)
	st.Start(context.Background())
	t.Cleanup(st.Stop)

	cfg := &config.Config{Dir: t.TempDir()}
	return &commands.Env{Cfg: cfg, Log: zap.NewNop(), Gateway: gw, Store: st}, local
}

// runWithFlags parses args through the command's flag set, then runs it.
func runWithFlags(t *testing.T, cmd commands.Command, env *commands.Env, args []string, out, errOut io.Writer) int {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd.Run(context.Background(), env, fs.Args(), out, errOut)
}

func TestListCmd_Empty(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeGateway(nil))

	var out, errOut bytes.Buffer
	code := (&commands.ListCmd{}).Run(context.Background(), env, nil, &out, &errOut)

	if code != exitcode.Success {
		t.Errorf("exit code = %d, want %d", code, exitcode.Success)
	}
	if out.String() != "no tasks\n" {
		t.Errorf("output = %q, want 'no tasks\\n'", out.String())
	}
}

func TestListCmd_FormatsTasks(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeGateway(nil),
		task.Task{ID: "1", Text: "buy milk"},
		task.Task{ID: "2", Text: "water plants", Completed: true},
	)

	var out, errOut bytes.Buffer
	code := (&commands.ListCmd{}).Run(context.Background(), env, nil, &out, &errOut)

	if code != exitcode.Success {
		t.Fatalf("exit code = %d, want %d", code, exitcode.Success)
	}
	want := "   1  [ ]  buy milk\n   2  [x]  water plants\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestAddCmd_AppendsAndPersists(t *testing.T) {
	env, local := newEnv(t, testutil.NewFakeGateway(nil))

	var out, errOut bytes.Buffer
	code := (&commands.AddCmd{}).Run(context.Background(), env, []string{"buy", "milk"}, &out, &errOut)

	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr %q", code, errOut.String())
	}
	if out.String() != "ok\n" {
		t.Errorf("output = %q, want 'ok\\n'", out.String())
	}
	saved := local.Saved()
	if len(saved) != 1 || saved[0].Text != "buy milk" {
		t.Errorf("saved = %+v, want one task 'buy milk'", saved)
	}
}

func TestAddCmd_EmptyTextRejected(t *testing.T) {
	env, local := newEnv(t, testutil.NewFakeGateway(nil))

	var out, errOut bytes.Buffer
	code := (&commands.AddCmd{}).Run(context.Background(), env, []string{"  "}, &out, &errOut)

	if code != exitcode.UserError {
		t.Errorf("exit code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(errOut.String(), "task text required") {
		t.Errorf("stderr = %q, want text-required error", errOut.String())
	}
	if n := local.SaveCount(); n != 0 {
		t.Errorf("save count = %d, want 0", n)
	}
}

func TestDoneCmd_TogglesByNumber(t *testing.T) {
	env, local := newEnv(t, testutil.NewFakeGateway(nil),
		task.Task{ID: "1", Text: "first"},
		task.Task{ID: "2", Text: "second"},
	)

	var out, errOut bytes.Buffer
	code := (&commands.DoneCmd{}).Run(context.Background(), env, []string{"2"}, &out, &errOut)

	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr %q", code, errOut.String())
	}
	saved := local.Saved()
	if len(saved) != 2 || !saved[1].Completed || saved[0].Completed {
		t.Errorf("saved = %+v, want only the second task completed", saved)
	}
}

func TestDoneCmd_UnknownRef(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeGateway(nil),
		task.Task{ID: "1", Text: "first"},
	)

	var out, errOut bytes.Buffer
	code := (&commands.DoneCmd{}).Run(context.Background(), env, []string{"7"}, &out, &errOut)

	if code != exitcode.UserError {
		t.Errorf("exit code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(errOut.String(), "not found") {
		t.Errorf("stderr = %q, want not-found error", errOut.String())
	}
}

func TestDoneCmd_MissingRef(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeGateway(nil))

	var out, errOut bytes.Buffer
	code := (&commands.DoneCmd{}).Run(context.Background(), env, nil, &out, &errOut)

	if code != exitcode.UserError {
		t.Errorf("exit code = %d, want %d", code, exitcode.UserError)
	}
}

func TestRmCmd_RemovesByPrefix(t *testing.T) {
	env, local := newEnv(t, testutil.NewFakeGateway(nil),
		task.Task{ID: "1", Text: "buy milk"},
		task.Task{ID: "2", Text: "water plants"},
	)

	var out, errOut bytes.Buffer
	code := (&commands.RmCmd{}).Run(context.Background(), env, []string{"water"}, &out, &errOut)

	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr %q", code, errOut.String())
	}
	saved := local.Saved()
	if len(saved) != 1 || saved[0].ID != "1" {
		t.Errorf("saved = %+v, want only task 1 left", saved)
	}
}

func TestRmCmd_AmbiguousRef(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeGateway(nil),
		task.Task{ID: "1", Text: "buy milk"},
		task.Task{ID: "2", Text: "buy bread"},
	)

	var out, errOut bytes.Buffer
	code := (&commands.RmCmd{}).Run(context.Background(), env, []string{"buy"}, &out, &errOut)

	if code != exitcode.UserError {
		t.Errorf("exit code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(errOut.String(), "ambiguous") {
		t.Errorf("stderr = %q, want ambiguous error", errOut.String())
	}
}

func TestLoginCmd_MissingFlags(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeGateway(nil))

	var out, errOut bytes.Buffer
	code := runWithFlags(t, &commands.LoginCmd{}, env, nil, &out, &errOut)

	if code != exitcode.UserError {
		t.Errorf("exit code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(errOut.String(), "--email and --password are required") {
		t.Errorf("stderr = %q, want missing-flags error", errOut.String())
	}
}

func TestLoginCmd_SetsIdentity(t *testing.T) {
	gw := testutil.NewFakeGateway(nil)
	env, _ := newEnv(t, gw)

	var out, errOut bytes.Buffer
	code := runWithFlags(t, &commands.LoginCmd{}, env,
		[]string{"-email", "a@b.c", "-password", "pw"}, &out, &errOut)

	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr %q", code, errOut.String())
	}
	if id := gw.Current(); id == nil || id.Email != "a@b.c" {
		t.Errorf("identity = %+v, want a@b.c", id)
	}
}

func TestLoginCmd_AlreadyLoggedIn(t *testing.T) {
	gw := testutil.NewFakeGateway(&session.Identity{UID: "u1", Email: "a@b.c"})
	env, _ := newEnv(t, gw)

	var out, errOut bytes.Buffer
	code := runWithFlags(t, &commands.LoginCmd{}, env,
		[]string{"-email", "x@y.z", "-password", "pw"}, &out, &errOut)

	if code != exitcode.UserError {
		t.Errorf("exit code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(errOut.String(), "already logged in as a@b.c") {
		t.Errorf("stderr = %q, want already-logged-in error", errOut.String())
	}
}

func TestLoginCmd_RemoteDisabled(t *testing.T) {
	env, _ := newEnv(t, session.LocalOnly{})

	var out, errOut bytes.Buffer
	code := runWithFlags(t, &commands.LoginCmd{}, env,
		[]string{"-email", "a@b.c", "-password", "pw"}, &out, &errOut)

	if code != exitcode.AuthError {
		t.Errorf("exit code = %d, want %d", code, exitcode.AuthError)
	}
	if !strings.Contains(errOut.String(), "firebase.json") {
		t.Errorf("stderr = %q, want setup instructions", errOut.String())
	}
}

func TestLogoutCmd_NotLoggedIn(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeGateway(nil))

	var out, errOut bytes.Buffer
	code := (&commands.LogoutCmd{}).Run(context.Background(), env, nil, &out, &errOut)

	if code != exitcode.Success {
		t.Errorf("exit code = %d, want %d", code, exitcode.Success)
	}
	if out.String() != "not logged in\n" {
		t.Errorf("output = %q, want 'not logged in\\n'", out.String())
	}
}

func TestLogoutCmd_ClearsIdentity(t *testing.T) {
	gw := testutil.NewFakeGateway(&session.Identity{UID: "u1", Email: "a@b.c"})
	env, _ := newEnv(t, gw)

	var out, errOut bytes.Buffer
	code := (&commands.LogoutCmd{}).Run(context.Background(), env, nil, &out, &errOut)

	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr %q", code, errOut.String())
	}
	if gw.Current() != nil {
		t.Error("identity not cleared")
	}
}

func TestVersionCmd(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeGateway(nil))

	var out, errOut bytes.Buffer
	code := (&commands.VersionCmd{}).Run(context.Background(), env, nil, &out, &errOut)

	if code != exitcode.Success {
		t.Errorf("exit code = %d, want %d", code, exitcode.Success)
	}
	if !strings.HasPrefix(out.String(), "taskpad ") {
		t.Errorf("output = %q, want 'taskpad <version>'", out.String())
	}
}

func TestQuietSuppressesOK(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeGateway(nil))
	env.Cfg.Quiet = true

	var out, errOut bytes.Buffer
	code := (&commands.AddCmd{}).Run(context.Background(), env, []string{"task"}, &out, &errOut)

	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr %q", code, errOut.String())
	}
	if out.String() != "" {
		t.Errorf("output = %q, want empty under --quiet", out.String())
	}
}
