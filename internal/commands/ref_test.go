package commands

import (
	"errors"
	"testing"

	"taskpad/internal/task"
)

func refTasks() []task.Task {
	return []task.Task{
		{ID: "1", Text: "buy milk"},
		{ID: "2", Text: "buy bread"},
		{ID: "3", Text: "water plants"},
	}
}

func TestResolveRef_ByNumber(t *testing.T) {
	got, err := resolveRef(refTasks(), "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "2" {
		t.Errorf("got task %s, want 2", got.ID)
	}
}

func TestResolveRef_NumberOutOfRange(t *testing.T) {
	for _, ref := range []string{"0", "4", "-1"} {
		if _, err := resolveRef(refTasks(), ref); !errors.Is(err, ErrRefNotFound) {
			t.Errorf("ref %q: got %v, want ErrRefNotFound", ref, err)
		}
	}
}

func TestResolveRef_ByUniquePrefix(t *testing.T) {
	got, err := resolveRef(refTasks(), "water")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "3" {
		t.Errorf("got task %s, want 3", got.ID)
	}
}

func TestResolveRef_PrefixCaseInsensitive(t *testing.T) {
	got, err := resolveRef(refTasks(), "WaTeR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "3" {
		t.Errorf("got task %s, want 3", got.ID)
	}
}

func TestResolveRef_AmbiguousPrefix(t *testing.T) {
	if _, err := resolveRef(refTasks(), "buy"); !errors.Is(err, ErrRefAmbiguous) {
		t.Errorf("got %v, want ErrRefAmbiguous", err)
	}
}

func TestResolveRef_NoMatch(t *testing.T) {
	if _, err := resolveRef(refTasks(), "nonexistent"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("got %v, want ErrRefNotFound", err)
	}
}

func TestResolveRef_Empty(t *testing.T) {
	if _, err := resolveRef(refTasks(), "  "); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("got %v, want ErrRefNotFound", err)
	}
}
