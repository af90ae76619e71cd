// Package tui provides the interactive terminal interface: an auth
// screen when remote sync is configured and no one is signed in, and
// the task list itself.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskpad/internal/session"
	"taskpad/internal/store"
	"taskpad/internal/task"
)

// View represents the current screen.
type View int

const (
	ViewLogin View = iota
	ViewSignup
	ViewTasks
)

// Focus says which part of the tasks screen receives keys.
type Focus int

const (
	FocusInput Focus = iota
	FocusList
)

// Message types
type snapshotMsg struct{ snap store.Snapshot }
type identityMsg struct{ id *session.Identity }
type authDoneMsg struct{ err error }

// App is the Bubble Tea model for the application.
type App struct {
	store   *store.Store
	gateway session.Gateway
	remote  bool

	view  View
	focus Focus

	// Auth screen
	email    textinput.Model
	password textinput.Model
	authBusy bool
	authErr  string

	// Tasks screen
	taskInput textinput.Model
	snap      store.Snapshot
	cursor    int

	spinner spinner.Model
	width   int
	height  int

	snapCh chan store.Snapshot
	idCh   chan *session.Identity

	unsubStore   func()
	unsubSession func()
}

// NewApp creates the model. The store must already be started.
func NewApp(st *store.Store, gw session.Gateway, remote bool) *App {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 100
	email.Width = 36
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 100
	password.Width = 36
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	taskInput := textinput.New()
	taskInput.Placeholder = "Add a new task"
	taskInput.CharLimit = 500
	taskInput.Width = 44
	taskInput.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	a := &App{
		store:     st,
		gateway:   gw,
		remote:    remote,
		email:     email,
		password:  password,
		taskInput: taskInput,
		spinner:   s,
		snapCh:    make(chan store.Snapshot, 64),
		idCh:      make(chan *session.Identity, 8),
	}

	// Remote mode gates the task list behind a signed-in identity,
	// exactly like the store gates its adapter.
	if remote && gw.Current() == nil {
		a.view = ViewLogin
	} else {
		a.view = ViewTasks
	}
	a.snap = st.Current()

	a.unsubStore = st.Subscribe(func(snap store.Snapshot) {
		select {
		case a.snapCh <- snap:
		default:
		}
	})
	a.unsubSession = gw.OnChange(func(id *session.Identity) {
		select {
		case a.idCh <- id:
		default:
		}
	})

	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.waitSnapshot(), a.waitIdentity())
}

func (a *App) waitSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: <-a.snapCh}
	}
}

func (a *App) waitIdentity() tea.Cmd {
	return func() tea.Msg {
		return identityMsg{id: <-a.idCh}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case snapshotMsg:
		a.snap = msg.snap
		a.clampCursor()
		return a, a.waitSnapshot()

	case identityMsg:
		if msg.id == nil && a.remote {
			a.view = ViewLogin
			a.resetAuthInputs()
		} else {
			a.view = ViewTasks
			a.focus = FocusInput
			a.taskInput.Focus()
			a.cursor = 0
		}
		return a, a.waitIdentity()

	case authDoneMsg:
		a.authBusy = false
		if msg.err != nil {
			a.authErr = authErrText(msg.err)
			return a, nil
		}
		// The identity notification flips the view.
		return a, nil
	}

	return a, nil
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.view {
	case ViewLogin, ViewSignup:
		return a.handleAuthKeyMsg(msg)
	default:
		return a.handleTasksKeyMsg(msg)
	}
}

func (a *App) handleAuthKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.authBusy {
		return a, nil
	}

	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if a.email.Focused() {
			a.email.Blur()
			a.password.Focus()
		} else {
			a.password.Blur()
			a.email.Focus()
		}
		return a, nil

	case "ctrl+s":
		// Switch between login and signup
		if a.view == ViewLogin {
			a.view = ViewSignup
		} else {
			a.view = ViewLogin
		}
		a.authErr = ""
		return a, nil

	case "enter":
		email := a.email.Value()
		password := a.password.Value()
		if email == "" || password == "" {
			a.authErr = "email and password are required"
			return a, nil
		}
		a.authBusy = true
		a.authErr = ""
		op := a.gateway.Login
		if a.view == ViewSignup {
			op = a.gateway.Signup
		}
		return a, tea.Batch(a.spinner.Tick, func() tea.Msg {
			return authDoneMsg{err: op(context.Background(), email, password)}
		})
	}

	var cmd tea.Cmd
	if a.email.Focused() {
		a.email, cmd = a.email.Update(msg)
	} else {
		a.password, cmd = a.password.Update(msg)
	}
	return a, cmd
}

func (a *App) handleTasksKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+l":
		if a.remote && a.gateway.Current() != nil {
			// Errors surface through the log; the view flips (or not)
			// with the identity notification.
			_ = a.store.Logout()
		}
		return a, nil

	case "tab", "esc":
		a.toggleFocus()
		return a, nil
	}

	if a.focus == FocusList {
		return a.handleListKeyMsg(msg)
	}

	switch msg.String() {
	case "enter":
		// Empty-after-trim text is rejected; keep whatever was typed.
		if err := a.store.Add(a.taskInput.Value()); err == nil {
			a.taskInput.SetValue("")
		}
		return a, nil

	case "up", "down":
		a.toggleFocus()
		return a, nil
	}

	var cmd tea.Cmd
	a.taskInput, cmd = a.taskInput.Update(msg)
	return a, cmd
}

func (a *App) handleListKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		a.cursor--
		a.clampCursor()
	case "down", "j":
		a.cursor++
		a.clampCursor()
	case " ", "enter":
		if t, ok := a.taskAtCursor(); ok {
			a.store.Toggle(t.ID)
		}
	case "d", "ctrl+d", "backspace":
		if t, ok := a.taskAtCursor(); ok {
			a.store.Remove(t.ID)
		}
	case "a", "i":
		a.focus = FocusInput
		a.taskInput.Focus()
	}
	return a, nil
}

func (a *App) toggleFocus() {
	if a.focus == FocusInput {
		a.focus = FocusList
		a.taskInput.Blur()
		a.clampCursor()
	} else {
		a.focus = FocusInput
		a.taskInput.Focus()
	}
}

func (a *App) taskAtCursor() (task.Task, bool) {
	if a.cursor < 0 || a.cursor >= len(a.snap.Tasks) {
		return task.Task{}, false
	}
	return a.snap.Tasks[a.cursor], true
}

func (a *App) clampCursor() {
	if a.cursor >= len(a.snap.Tasks) {
		a.cursor = len(a.snap.Tasks) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) resetAuthInputs() {
	a.email.SetValue("")
	a.password.SetValue("")
	a.password.Blur()
	a.email.Focus()
	a.authErr = ""
	a.authBusy = false
}

// Close unhooks the model from the store and gateway.
func (a *App) Close() {
	if a.unsubStore != nil {
		a.unsubStore()
	}
	if a.unsubSession != nil {
		a.unsubSession()
	}
}

func authErrText(err error) string {
	if errors.Is(err, session.ErrRemoteDisabled) {
		return "remote sync is not configured"
	}
	return err.Error()
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, st *store.Store, gw session.Gateway, remote bool) error {
	app := NewApp(st, gw, remote)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
