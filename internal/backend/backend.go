// Package backend defines the backing-store contracts for the task
// store. The sync core never imports a storage SDK directly; it talks
// to one of these two adapter interfaces depending on session state.
package backend

import (
	"context"
	"fmt"

	"taskpad/internal/task"
)

// Local is the durable key-value persistence adapter used when no
// authenticated session exists. The whole list is read and written as
// one value.
type Local interface {
	// Load reads the entire durable store. A missing store yields an
	// empty list and no error. Corrupt data also yields an empty list,
	// with a *PersistenceError describing what was discarded; the
	// caller reports it and carries on.
	Load(ctx context.Context) ([]task.Task, error)

	// Save serializes and durably writes the full list, overwriting
	// prior contents. Called on every mutation, never batched.
	Save(ctx context.Context, tasks []task.Task) error

	Close() error
}

// Remote is the multi-device sync adapter backed by a per-user remote
// document collection.
type Remote interface {
	// Subscribe establishes the owner-filtered, createdAt-descending
	// query and a push subscription against it. Every delivery on the
	// subscription is the entire current result set, not a diff.
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)

	// Create issues a remote insert with the trimmed text, completed
	// false and a server-assigned creation timestamp. It does not wait
	// for the subscription echo.
	Create(ctx context.Context, ownerID, text string) error

	// Toggle flips completed on the identified record. A record that no
	// longer exists is silently skipped.
	Toggle(ctx context.Context, id string) error

	// Remove deletes the identified record, silently skipping records
	// that no longer exist.
	Remove(ctx context.Context, id string) error

	Close() error
}

// Subscription is a live remote query. Snapshots delivers full-list
// replacements in store order until Cancel or the subscribe context
// ends, then the channel closes; Err reports why it stopped, if
// anything went wrong.
type Subscription interface {
	Snapshots() <-chan []task.Task
	Err() error

	// Cancel tears the subscription down. Safe to call more than once;
	// no snapshots are delivered after it returns.
	Cancel()
}

// PersistenceError reports a local read or write failure. It is logged
// and never fatal: the in-memory list stays authoritative even when the
// durable copy lags.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("local store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SyncError reports a remote subscribe or write failure. Subscribe
// failures degrade to an empty ready list; write failures are logged
// and otherwise swallowed.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("remote sync %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
