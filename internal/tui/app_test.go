package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"taskpad/internal/session"
	"taskpad/internal/store"
	"taskpad/internal/task"
	"taskpad/internal/testutil"
)

func startStore(t *testing.T, gw session.Gateway, local *testutil.FakeLocal) *store.Store {
	t.Helper()
	st := store.New(zap.NewNop(), gw, local, nil)
	st.Start(context.Background())
	t.Cleanup(st.Stop)
	return st
}

// eventually polls until pred returns true or the deadline passes.
func eventually(t *testing.T, what string, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func keyRunes(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestLocalModeOpensTaskList(t *testing.T) {
	gw := testutil.NewFakeGateway(nil)
	st := startStore(t, gw, testutil.NewFakeLocal())

	app := NewApp(st, gw, false)
	defer app.Close()

	if app.view != ViewTasks {
		t.Errorf("view = %d, want ViewTasks", app.view)
	}
}

func TestRemoteModeGatesOnIdentity(t *testing.T) {
	gw := testutil.NewFakeGateway(nil)
	st := startStore(t, gw, testutil.NewFakeLocal())

	app := NewApp(st, gw, true)
	defer app.Close()

	if app.view != ViewLogin {
		t.Fatalf("view = %d, want ViewLogin", app.view)
	}

	app.Update(identityMsg{id: &session.Identity{UID: "u1", Email: "a@b.c"}})
	if app.view != ViewTasks {
		t.Fatalf("after sign-in: view = %d, want ViewTasks", app.view)
	}

	app.email.SetValue("leftover")
	app.Update(identityMsg{id: nil})
	if app.view != ViewLogin {
		t.Fatalf("after sign-out: view = %d, want ViewLogin", app.view)
	}
	if app.email.Value() != "" {
		t.Errorf("email input not reset, got %q", app.email.Value())
	}
}

func TestSnapshotClampsCursor(t *testing.T) {
	gw := testutil.NewFakeGateway(nil)
	st := startStore(t, gw, testutil.NewFakeLocal())

	app := NewApp(st, gw, false)
	defer app.Close()

	app.cursor = 5
	app.Update(snapshotMsg{snap: store.Snapshot{Tasks: []task.Task{
		{ID: "1", Text: "only"},
	}}})
	if app.cursor != 0 {
		t.Errorf("cursor = %d, want 0", app.cursor)
	}
}

func TestEnterAddsTaskAndClearsInput(t *testing.T) {
	gw := testutil.NewFakeGateway(nil)
	local := testutil.NewFakeLocal()
	st := startStore(t, gw, local)

	app := NewApp(st, gw, false)
	defer app.Close()

	app.taskInput.SetValue("  buy milk  ")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got := app.taskInput.Value(); got != "" {
		t.Errorf("input not cleared, got %q", got)
	}
	eventually(t, "task in store", func() bool {
		snap := st.Current()
		return len(snap.Tasks) == 1 && snap.Tasks[0].Text == "buy milk"
	})
}

func TestEnterWithEmptyInputAddsNothing(t *testing.T) {
	gw := testutil.NewFakeGateway(nil)
	st := startStore(t, gw, testutil.NewFakeLocal())

	app := NewApp(st, gw, false)
	defer app.Close()

	app.taskInput.SetValue("   ")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	eventually(t, "store ready", func() bool { return !st.Current().Loading })
	if n := len(st.Current().Tasks); n != 0 {
		t.Errorf("got %d tasks, want 0", n)
	}
}

func TestListKeysToggleAndDelete(t *testing.T) {
	gw := testutil.NewFakeGateway(nil)
	seed := []task.Task{
		{ID: "1", Text: "first"},
		{ID: "2", Text: "second"},
	}
	st := startStore(t, gw, testutil.NewFakeLocal(seed...))

	app := NewApp(st, gw, false)
	defer app.Close()

	eventually(t, "seed loaded", func() bool { return len(st.Current().Tasks) == 2 })
	app.Update(snapshotMsg{snap: st.Current()})

	// Move focus to the list and toggle the second task.
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if app.focus != FocusList {
		t.Fatalf("focus = %d, want FocusList", app.focus)
	}
	app.Update(keyRunes('j'))
	app.Update(tea.KeyMsg{Type: tea.KeySpace})
	eventually(t, "second task toggled", func() bool {
		snap := st.Current()
		return len(snap.Tasks) == 2 && snap.Tasks[1].Completed
	})

	app.Update(snapshotMsg{snap: st.Current()})
	app.Update(keyRunes('d'))
	eventually(t, "second task removed", func() bool {
		snap := st.Current()
		return len(snap.Tasks) == 1 && snap.Tasks[0].ID == "1"
	})
}

func TestCursorMovementClamps(t *testing.T) {
	gw := testutil.NewFakeGateway(nil)
	st := startStore(t, gw, testutil.NewFakeLocal(
		task.Task{ID: "1", Text: "a"},
		task.Task{ID: "2", Text: "b"},
	))

	app := NewApp(st, gw, false)
	defer app.Close()

	eventually(t, "seed loaded", func() bool { return len(st.Current().Tasks) == 2 })
	app.Update(snapshotMsg{snap: st.Current()})
	app.Update(tea.KeyMsg{Type: tea.KeyTab})

	app.Update(keyRunes('k'))
	if app.cursor != 0 {
		t.Errorf("cursor after up at top = %d, want 0", app.cursor)
	}
	app.Update(keyRunes('j'))
	app.Update(keyRunes('j'))
	app.Update(keyRunes('j'))
	if app.cursor != 1 {
		t.Errorf("cursor after down past end = %d, want 1", app.cursor)
	}
}

func TestAuthErrorShownOnFailedLogin(t *testing.T) {
	gw := testutil.NewFakeGateway(nil)
	gw.LoginErr = session.ErrRemoteDisabled
	st := startStore(t, gw, testutil.NewFakeLocal())

	app := NewApp(st, gw, true)
	defer app.Close()

	app.email.SetValue("a@b.c")
	app.password.SetValue("pw")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter did not produce an auth command")
	}
	if !app.authBusy {
		t.Fatal("authBusy not set")
	}

	app.Update(authDoneMsg{err: session.ErrRemoteDisabled})
	if app.authBusy {
		t.Error("authBusy still set after auth finished")
	}
	if app.authErr == "" {
		t.Error("auth error not surfaced")
	}
	if app.view != ViewLogin {
		t.Errorf("view = %d, want ViewLogin", app.view)
	}
}
