// Package testutil provides in-memory fakes for the adapter and
// gateway contracts.
package testutil

import (
	"context"
	"sync"

	"taskpad/internal/backend"
	"taskpad/internal/session"
	"taskpad/internal/task"
)

// FakeLocal is an in-memory implementation of backend.Local.
type FakeLocal struct {
	mu    sync.Mutex
	tasks []task.Task
	saves int

	// Error injection.
	LoadErr error
	SaveErr error
}

// NewFakeLocal creates a FakeLocal seeded with the given tasks.
func NewFakeLocal(tasks ...task.Task) *FakeLocal {
	return &FakeLocal{tasks: task.Clone(tasks)}
}

// Load implements backend.Local.
func (f *FakeLocal) Load(ctx context.Context) ([]task.Task, error) {
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return task.Clone(f.tasks), nil
}

// Save implements backend.Local.
func (f *FakeLocal) Save(ctx context.Context, tasks []task.Task) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = task.Clone(tasks)
	f.saves++
	return nil
}

// Close implements backend.Local.
func (f *FakeLocal) Close() error { return nil }

// Saved returns the last saved list.
func (f *FakeLocal) Saved() []task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return task.Clone(f.tasks)
}

// SaveCount returns how many saves succeeded.
func (f *FakeLocal) SaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// FakeSubscription is a manually driven backend.Subscription.
type FakeSubscription struct {
	ch   chan []task.Task
	mu   sync.Mutex
	done bool
	err  error
}

// Emit delivers a full snapshot to the consumer. Emitting after Cancel
// is silently dropped, like a listener that was already detached. The
// channel is buffered; the lock is held through the send so Emit and
// Cancel cannot race.
func (f *FakeSubscription) Emit(tasks []task.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	f.ch <- task.Clone(tasks)
}

// Fail records err and closes the stream.
func (f *FakeSubscription) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	f.done = true
	f.err = err
	close(f.ch)
}

// Snapshots implements backend.Subscription.
func (f *FakeSubscription) Snapshots() <-chan []task.Task { return f.ch }

// Err implements backend.Subscription.
func (f *FakeSubscription) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Cancel implements backend.Subscription.
func (f *FakeSubscription) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	f.done = true
	close(f.ch)
}

// Cancelled reports whether the subscription has been torn down.
func (f *FakeSubscription) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// FakeRemote is an in-memory implementation of backend.Remote acting as
// its own server: writes mutate a document map and, when Echo is set,
// re-emit the full result set on the live subscription.
type FakeRemote struct {
	mu     sync.Mutex
	docs   []task.Task
	sub    *FakeSubscription
	seq    int
	closed bool

	// Echo re-emits a snapshot after every successful write, imitating
	// the backing store's push notification.
	Echo bool

	// Error injection.
	SubscribeErr error
	CreateErr    error
	ToggleErr    error
	RemoveErr    error
}

// NewFakeRemote creates a FakeRemote seeded with the given documents.
func NewFakeRemote(docs ...task.Task) *FakeRemote {
	return &FakeRemote{docs: task.Clone(docs)}
}

// Subscribe implements backend.Remote. The initial snapshot is emitted
// asynchronously, like a real push subscription.
func (f *FakeRemote) Subscribe(ctx context.Context, ownerID string) (backend.Subscription, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	f.mu.Lock()
	sub := &FakeSubscription{ch: make(chan []task.Task, 8)}
	f.sub = sub
	snapshot := task.Clone(f.docs)
	f.mu.Unlock()

	sub.Emit(snapshot)
	return sub, nil
}

// Create implements backend.Remote.
func (f *FakeRemote) Create(ctx context.Context, ownerID, text string) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.mu.Lock()
	f.seq++
	t, err := task.New(text)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	t.OwnerID = ownerID
	// Server-assigned id; newest first, like the ordered query.
	f.docs = append([]task.Task{t}, f.docs...)
	f.mu.Unlock()

	f.echo()
	return nil
}

// Toggle implements backend.Remote. Unknown ids are silently skipped.
func (f *FakeRemote) Toggle(ctx context.Context, id string) error {
	if f.ToggleErr != nil {
		return f.ToggleErr
	}
	f.mu.Lock()
	for i := range f.docs {
		if f.docs[i].ID == id {
			f.docs[i].Completed = !f.docs[i].Completed
			break
		}
	}
	f.mu.Unlock()

	f.echo()
	return nil
}

// Remove implements backend.Remote. Unknown ids are silently skipped.
func (f *FakeRemote) Remove(ctx context.Context, id string) error {
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	f.mu.Lock()
	for i := range f.docs {
		if f.docs[i].ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	f.echo()
	return nil
}

// Close implements backend.Remote.
func (f *FakeRemote) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeRemote) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Sub returns the most recent subscription, for driving snapshots by
// hand.
func (f *FakeRemote) Sub() *FakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub
}

// Docs returns the current server-side documents.
func (f *FakeRemote) Docs() []task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return task.Clone(f.docs)
}

// EmitCurrent pushes the current document set on the live
// subscription, regardless of Echo.
func (f *FakeRemote) EmitCurrent() {
	f.mu.Lock()
	sub := f.sub
	snapshot := task.Clone(f.docs)
	f.mu.Unlock()
	if sub != nil {
		sub.Emit(snapshot)
	}
}

func (f *FakeRemote) echo() {
	f.mu.Lock()
	echo := f.Echo
	sub := f.sub
	snapshot := task.Clone(f.docs)
	f.mu.Unlock()
	if echo && sub != nil {
		sub.Emit(snapshot)
	}
}

// FakeGateway is a scriptable session.Gateway.
type FakeGateway struct {
	mu        sync.Mutex
	current   *session.Identity
	listeners map[int]func(*session.Identity)
	nextID    int

	LoginErr  error
	SignupErr error
}

// NewFakeGateway creates a gateway with the given starting identity
// (nil for signed out).
func NewFakeGateway(id *session.Identity) *FakeGateway {
	return &FakeGateway{
		current:   id,
		listeners: make(map[int]func(*session.Identity)),
	}
}

// Current implements session.Gateway.
func (f *FakeGateway) Current() *session.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	id := *f.current
	return &id
}

// Login implements session.Gateway.
func (f *FakeGateway) Login(ctx context.Context, email, password string) error {
	if f.LoginErr != nil {
		return f.LoginErr
	}
	f.SetIdentity(&session.Identity{UID: "uid-" + email, Email: email})
	return nil
}

// Signup implements session.Gateway.
func (f *FakeGateway) Signup(ctx context.Context, email, password string) error {
	if f.SignupErr != nil {
		return f.SignupErr
	}
	f.SetIdentity(&session.Identity{UID: "uid-" + email, Email: email})
	return nil
}

// Logout implements session.Gateway.
func (f *FakeGateway) Logout() error {
	f.SetIdentity(nil)
	return nil
}

// OnChange implements session.Gateway.
func (f *FakeGateway) OnChange(fn func(*session.Identity)) (cancel func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// SetIdentity transitions the identity and notifies listeners.
func (f *FakeGateway) SetIdentity(id *session.Identity) {
	f.mu.Lock()
	f.current = id
	fns := make([]func(*session.Identity), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		if id == nil {
			fn(nil)
			continue
		}
		cp := *id
		fn(&cp)
	}
}
