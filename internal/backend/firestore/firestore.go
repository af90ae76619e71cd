// Package firestore implements the remote sync adapter against a Cloud
// Firestore task collection. Documents are scoped per user; the live
// query delivers full result sets which the sync core treats as
// replacements, never patches.
package firestore

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"taskpad/internal/backend"
	"taskpad/internal/task"
)

const (
	// collection is the task collection name.
	collection = "tasks"

	// writeTimeout bounds individual create/update/delete calls.
	writeTimeout = 5 * time.Second
)

// Client implements backend.Remote over Cloud Firestore.
type Client struct {
	fs  *firestore.Client
	log *zap.Logger
}

// New creates a remote adapter for the given project, authenticating
// every call with the session's token source.
func New(ctx context.Context, projectID string, ts oauth2.TokenSource, log *zap.Logger) (*Client, error) {
	var opts []option.ClientOption
	if ts != nil {
		opts = append(opts, option.WithTokenSource(ts))
	}
	fs, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, &backend.SyncError{Op: "connect", Err: err}
	}
	return &Client{fs: fs, log: log}, nil
}

func (c *Client) tasksCol() *firestore.CollectionRef {
	return c.fs.Collection(collection)
}

// taskDoc is the remote document shape. CreatedAt carries the
// serverTimestamp option so inserts get a server-assigned time.
type taskDoc struct {
	Text      string    `firestore:"text"`
	Completed bool      `firestore:"completed"`
	UserID    string    `firestore:"userId"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp"`
}

// Subscribe establishes the per-user query (userId == ownerID, ordered
// by createdAt descending) and pumps its push snapshots into the
// returned subscription.
func (c *Client) Subscribe(ctx context.Context, ownerID string) (backend.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := c.tasksCol().
		Where("userId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc).
		Snapshots(ctx)

	sub := &subscription{
		ch:     make(chan []task.Task),
		done:   ctx.Done(),
		cancel: cancel,
		stop:   it.Stop,
	}
	go sub.pump(it, c.log)
	return sub, nil
}

// Create inserts a new open task for the owner. It returns once the
// write is accepted; the subscription echo is what makes the task
// visible.
func (c *Client) Create(ctx context.Context, ownerID, text string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, _, err := c.tasksCol().Add(ctx, taskDoc{
		Text:      text,
		Completed: false,
		UserID:    ownerID,
	})
	if err != nil {
		return &backend.SyncError{Op: "create", Err: err}
	}
	return nil
}

// Toggle flips completed on the identified record. A concurrently
// deleted record is skipped without error.
func (c *Client) Toggle(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ref := c.tasksCol().Doc(id)
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return &backend.SyncError{Op: "toggle", Err: err}
	}

	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return &backend.SyncError{Op: "toggle", Err: err}
	}

	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "completed", Value: !doc.Completed},
	})
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return &backend.SyncError{Op: "toggle", Err: err}
	}
	return nil
}

// Remove deletes the identified record, skipping records that no
// longer exist.
func (c *Client) Remove(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := c.tasksCol().Doc(id).Delete(ctx)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return &backend.SyncError{Op: "remove", Err: err}
	}
	return nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.fs.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// subscription adapts a firestore snapshot iterator to
// backend.Subscription.
type subscription struct {
	ch     chan []task.Task
	done   <-chan struct{}
	cancel context.CancelFunc
	stop   func()
	once   sync.Once

	mu  sync.Mutex
	err error
}

func (s *subscription) Snapshots() <-chan []task.Task { return s.ch }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		s.stop()
	})
}

func (s *subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// pump translates each query snapshot into a full task list and
// forwards it until the iterator stops. The channel is closed on exit
// so the consumer sees a terminal state either way.
func (s *subscription) pump(it *firestore.QuerySnapshotIterator, log *zap.Logger) {
	defer close(s.ch)

	for {
		qsnap, err := it.Next()
		if err != nil {
			// Cancellation is the normal teardown path, not a failure.
			if status.Code(err) == codes.Canceled {
				return
			}
			s.setErr(&backend.SyncError{Op: "subscribe", Err: err})
			return
		}

		docs, err := qsnap.Documents.GetAll()
		if err != nil {
			s.setErr(&backend.SyncError{Op: "subscribe", Err: err})
			return
		}

		tasks := make([]task.Task, 0, len(docs))
		for _, d := range docs {
			var doc taskDoc
			if err := d.DataTo(&doc); err != nil {
				log.Warn("skipping undecodable task document",
					zap.String("id", d.Ref.ID), zap.Error(err))
				continue
			}
			tasks = append(tasks, task.Task{
				ID:        d.Ref.ID,
				Text:      doc.Text,
				Completed: doc.Completed,
				OwnerID:   doc.UserID,
				CreatedAt: doc.CreatedAt,
			})
		}

		select {
		case s.ch <- tasks:
		case <-s.done:
			return
		}
	}
}
