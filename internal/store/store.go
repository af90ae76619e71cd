// Package store implements the task synchronization core: the single
// owner of the in-memory task list. It selects a backing adapter from
// the session identity, folds adapter events into the list, applies
// user mutations optimistically and notifies subscribers on every
// change.
//
// All list state is owned by one goroutine (run). Adapter callbacks,
// gateway notifications and mutation calls are funneled into it as
// events, so ordering is whatever order the loop dequeues: the last
// event processed wins. Remote snapshots replace the list wholesale;
// local mutations edit it in place and persist the result.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskpad/internal/backend"
	"taskpad/internal/session"
	"taskpad/internal/task"
)

// Snapshot is the read-only view handed to subscribers. Loading is true
// from construction until the active adapter has delivered its first
// data (or definitively failed), so the presentation layer always
// reaches a terminal state.
type Snapshot struct {
	Tasks   []task.Task
	Loading bool
}

// Listener receives a Snapshot on every state change.
type Listener func(Snapshot)

// RemoteFactory builds a remote adapter for an authenticated identity.
type RemoteFactory func(ctx context.Context, id session.Identity) (backend.Remote, error)

type mode int

const (
	modeNone mode = iota
	modeLocal
	modeRemote
)

type event interface{ storeEvent() }

type sessionEvent struct{ id *session.Identity }
type snapshotEvent struct {
	gen   uuid.UUID
	tasks []task.Task
}
type addEvent struct{ t task.Task }
type toggleEvent struct{ id string }
type removeEvent struct{ id string }

func (sessionEvent) storeEvent()  {}
func (snapshotEvent) storeEvent() {}
func (addEvent) storeEvent()      {}
func (toggleEvent) storeEvent()   {}
func (removeEvent) storeEvent()   {}

// Store is the task store / sync core.
type Store struct {
	log     *zap.Logger
	gateway session.Gateway
	local   backend.Local
	remotes RemoteFactory

	events chan event
	done   chan struct{}
	cancel context.CancelFunc
	unsub  func()

	// Loop-owned state. Only the run goroutine touches these.
	mode    mode
	tasks   []task.Task
	loading bool
	gen     uuid.UUID
	owner   string
	remote  backend.Remote
	sub     backend.Subscription
	subStop context.CancelFunc
	runCtx  context.Context

	// Published state, guarded for synchronous readers.
	mu        sync.Mutex
	snap      Snapshot
	listeners map[int]Listener
	nextID    int
}

// New creates a store. local must be non-nil; remotes may be nil when
// remote sync is not configured (the gateway then never reports an
// identity).
func New(log *zap.Logger, gateway session.Gateway, local backend.Local, remotes RemoteFactory) *Store {
	return &Store{
		log:       log,
		gateway:   gateway,
		local:     local,
		remotes:   remotes,
		events:    make(chan event, 64),
		done:      make(chan struct{}),
		snap:      Snapshot{Loading: true},
		listeners: make(map[int]Listener),
	}
}

// Start begins processing. The current session identity is resolved
// immediately and every later identity change re-derives the adapter.
func (s *Store) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.runCtx = ctx
	s.unsub = s.gateway.OnChange(func(id *session.Identity) {
		s.post(sessionEvent{id: id})
	})
	go s.run(ctx)
	s.post(sessionEvent{id: s.gateway.Current()})
}

// Stop tears the store down: the gateway listener is removed, any live
// subscription is cancelled and the loop exits. Events delivered after
// Stop are not processed.
func (s *Store) Stop() {
	if s.unsub != nil {
		s.unsub()
	}
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

// Subscribe registers a listener and immediately hands it the current
// snapshot. The returned func unregisters it.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	cur := s.snap
	s.mu.Unlock()

	fn(cur)
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Current returns the last published snapshot.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Add validates the text and queues an append. Empty-after-trim text is
// rejected before reaching any adapter and the list is unchanged.
func (s *Store) Add(text string) error {
	t, err := task.New(text)
	if err != nil {
		return err
	}
	s.post(addEvent{t: t})
	return nil
}

// Toggle queues a completed-flag flip for the identified task. Unknown
// ids are a no-op.
func (s *Store) Toggle(id string) {
	s.post(toggleEvent{id: id})
}

// Remove queues a delete for the identified task. Unknown ids are a
// no-op.
func (s *Store) Remove(id string) {
	s.post(removeEvent{id: id})
}

// Logout ends the authenticated session. The resulting identity change
// flows back in through the gateway notification.
func (s *Store) Logout() error {
	return s.gateway.Logout()
}

func (s *Store) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *Store) run(ctx context.Context) {
	defer close(s.done)
	defer s.dropSubscription()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			switch ev := ev.(type) {
			case sessionEvent:
				s.handleSession(ctx, ev.id)
			case snapshotEvent:
				s.handleSnapshot(ev)
			case addEvent:
				s.handleAdd(ev.t)
			case toggleEvent:
				s.handleToggle(ev.id)
			case removeEvent:
				s.handleRemove(ev.id)
			}
		}
	}
}

// handleSession is the authoritative identity transition: discard the
// list, cancel any live subscription and start over with the adapter
// the new identity selects. Tasks never carry over between identities.
func (s *Store) handleSession(ctx context.Context, id *session.Identity) {
	s.dropSubscription()
	s.tasks = nil
	s.loading = true
	s.gen = uuid.New()
	s.publish()

	if id == nil {
		s.mode = modeLocal
		s.owner = ""
		s.loadLocal(ctx)
		return
	}

	s.mode = modeRemote
	s.owner = id.UID
	s.startRemote(ctx, *id)
}

// loadLocal reads the durable store. Read failures (including corrupt
// data) start the list empty; the failure is logged, never surfaced.
func (s *Store) loadLocal(ctx context.Context) {
	tasks, err := s.local.Load(ctx)
	if err != nil {
		s.log.Warn("local load failed, starting with empty list", zap.Error(err))
	}
	s.tasks = task.Clone(tasks)
	s.loading = false
	s.publish()
}

// startRemote connects the remote adapter and subscribes to the
// per-user query. Any failure degrades to an empty ready list so the
// presentation still reaches a terminal state.
func (s *Store) startRemote(ctx context.Context, id session.Identity) {
	if s.remotes == nil {
		// An identity arrived without a configured remote factory.
		s.log.Warn("no remote factory, showing empty list", zap.String("uid", id.UID))
		s.loading = false
		s.publish()
		return
	}

	rc, err := s.remotes(ctx, id)
	if err != nil {
		s.log.Warn("remote connect failed, showing empty list", zap.Error(err))
		s.loading = false
		s.publish()
		return
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := rc.Subscribe(subCtx, id.UID)
	if err != nil {
		cancel()
		if cerr := rc.Close(); cerr != nil {
			s.log.Warn("remote close failed", zap.Error(cerr))
		}
		s.log.Warn("remote subscribe failed, showing empty list", zap.Error(err))
		s.loading = false
		s.publish()
		return
	}

	s.remote = rc
	s.sub = sub
	s.subStop = cancel
	go s.pumpRemote(sub, s.gen)
}

// pumpRemote forwards subscription snapshots into the loop, tagged with
// the generation that created the subscription. Once the channel
// closes, a recorded error degrades that generation to an empty list.
func (s *Store) pumpRemote(sub backend.Subscription, gen uuid.UUID) {
	for tasks := range sub.Snapshots() {
		s.post(snapshotEvent{gen: gen, tasks: tasks})
	}
	if err := sub.Err(); err != nil {
		s.log.Warn("remote subscription ended, showing empty list", zap.Error(err))
		s.post(snapshotEvent{gen: gen})
	}
}

// handleSnapshot replaces the list with a full remote result set.
// Snapshots from a cancelled subscription generation are dropped, which
// makes delivery after a session change a structural no-op.
func (s *Store) handleSnapshot(ev snapshotEvent) {
	if ev.gen != s.gen {
		return
	}
	s.tasks = task.Clone(ev.tasks)
	s.loading = false
	s.publish()
}

func (s *Store) handleAdd(t task.Task) {
	switch s.mode {
	case modeLocal:
		t.OwnerID = ""
		s.tasks = append(s.tasks, t)
		s.persistLocal()
		s.publish()
	case modeRemote:
		// No optimistic insert: the record id and creation time are
		// server-assigned, so the subscription echo is what makes the
		// task visible.
		owner := s.owner
		s.forwardRemote("create", func(rc backend.Remote, ctx context.Context) error {
			return rc.Create(ctx, owner, t.Text)
		})
	}
}

func (s *Store) handleToggle(id string) {
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = !s.tasks[i].Completed
			found = true
			break
		}
	}
	if !found {
		return
	}

	switch s.mode {
	case modeLocal:
		s.persistLocal()
		s.publish()
	case modeRemote:
		s.publish()
		s.forwardRemote("toggle", func(rc backend.Remote, ctx context.Context) error {
			return rc.Toggle(ctx, id)
		})
	}
}

func (s *Store) handleRemove(id string) {
	kept := s.tasks[:0]
	found := false
	for _, t := range s.tasks {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return
	}
	s.tasks = kept

	switch s.mode {
	case modeLocal:
		s.persistLocal()
		s.publish()
	case modeRemote:
		s.publish()
		s.forwardRemote("remove", func(rc backend.Remote, ctx context.Context) error {
			return rc.Remove(ctx, id)
		})
	}
}

// persistLocal writes the already-mutated list through the persistence
// adapter. A write failure is logged and nothing is rolled back: the
// in-memory list stays authoritative even if the durable copy lags.
func (s *Store) persistLocal() {
	if err := s.local.Save(s.runCtx, task.Clone(s.tasks)); err != nil {
		s.log.Warn("local save failed, in-memory list kept", zap.Error(err))
	}
}

// forwardRemote ships a mutation to the remote adapter without waiting
// for it. Failures are logged and otherwise swallowed; the next
// snapshot reconciles whatever the server actually holds.
func (s *Store) forwardRemote(op string, fn func(backend.Remote, context.Context) error) {
	if s.remote == nil {
		s.log.Warn("remote write dropped, no active connection", zap.String("op", op))
		return
	}
	rc, ctx := s.remote, s.runCtx
	log := s.log
	go func() {
		if err := fn(rc, ctx); err != nil {
			log.Warn("remote write failed", zap.String("op", op), zap.Error(err))
		}
	}()
}

// dropSubscription cancels the live subscription and closes the remote
// adapter. Idempotent; called on every session change and on teardown
// so a listener is never leaked across identities.
func (s *Store) dropSubscription() {
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
	if s.subStop != nil {
		s.subStop()
		s.subStop = nil
	}
	if s.remote != nil {
		if err := s.remote.Close(); err != nil {
			s.log.Warn("remote close failed", zap.Error(err))
		}
		s.remote = nil
	}
	s.mode = modeNone
	s.owner = ""
}

// publish snapshots the loop state for synchronous readers and fans it
// out to listeners.
func (s *Store) publish() {
	snap := Snapshot{Tasks: task.Clone(s.tasks), Loading: s.loading}

	s.mu.Lock()
	s.snap = snap
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
