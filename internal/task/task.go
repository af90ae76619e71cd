// Package task defines the task entity shared by all backends.
package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Task represents a single item on the user's list.
//
// The JSON shape is the durable local format: exactly id, text and
// completed. Owner and creation time only matter in remote mode and are
// carried by the remote adapter's own document encoding.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	OwnerID   string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// ValidationError reports task input rejected before reaching a backend.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid task: %s", e.Reason)
}

// New creates a task from user-supplied text.
// Text is trimmed; empty-after-trim text is rejected with a
// *ValidationError and no task is created. The ID is derived from the
// creation timestamp and is unique within a single process.
func New(text string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, &ValidationError{Reason: "text is empty"}
	}
	now := time.Now()
	return Task{
		ID:        strconv.FormatInt(now.UnixNano(), 10),
		Text:      text,
		Completed: false,
		CreatedAt: now,
	}, nil
}

// Clone returns a copy of the given list. Adapters and the store hand
// out clones so no caller can mutate shared state.
func Clone(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
