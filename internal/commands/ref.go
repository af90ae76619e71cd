package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskpad/internal/store"
	"taskpad/internal/task"
)

// storeTimeout bounds how long a one-shot command waits on the store.
const storeTimeout = 10 * time.Second

// ErrRefNotFound is returned when a ref matches no task.
var ErrRefNotFound = errors.New("task not found")

// ErrRefAmbiguous is returned when a text prefix matches several tasks.
var ErrRefAmbiguous = errors.New("ambiguous task reference")

// resolveRef resolves a user-supplied task reference against the
// current list: either a 1-based number from the list output, or a
// case-insensitive text prefix that matches exactly one task.
func resolveRef(tasks []task.Task, ref string) (task.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.Task{}, ErrRefNotFound
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(tasks) {
			return task.Task{}, fmt.Errorf("%w: %d", ErrRefNotFound, n)
		}
		return tasks[n-1], nil
	}

	prefix := strings.ToLower(ref)
	var matches []task.Task
	for _, t := range tasks {
		if strings.HasPrefix(strings.ToLower(t.Text), prefix) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("%w: %s", ErrRefNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return task.Task{}, fmt.Errorf("%w: %s", ErrRefAmbiguous, ref)
	}
}

// await blocks until the store publishes a snapshot matching pred, the
// timeout fires, or ctx ends.
func await(ctx context.Context, st *store.Store, pred func(store.Snapshot) bool) (store.Snapshot, error) {
	ch := make(chan store.Snapshot, 64)
	cancel := st.Subscribe(func(s store.Snapshot) {
		select {
		case ch <- s:
		default:
		}
	})
	defer cancel()

	timer := time.NewTimer(storeTimeout)
	defer timer.Stop()

	for {
		select {
		case s := <-ch:
			if pred(s) {
				return s, nil
			}
		case <-timer.C:
			return store.Snapshot{}, errors.New("timed out waiting for the task list")
		case <-ctx.Done():
			return store.Snapshot{}, ctx.Err()
		}
	}
}

// awaitReady waits until the store leaves its loading state.
func awaitReady(ctx context.Context, st *store.Store) (store.Snapshot, error) {
	return await(ctx, st, func(s store.Snapshot) bool { return !s.Loading })
}
