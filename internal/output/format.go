// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskpad/internal/task"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [{x| }]  {TEXT}\n" (4-wide right-aligned number, a
// checkbox, the task text).
func FormatTask(w io.Writer, num int, t task.Task) {
	box := " "
	if t.Completed {
		box = "x"
	}
	fmt.Fprintf(w, "%4d  [%s]  %s\n", num, box, normalizeText(t.Text))
}

// FormatList formats the whole task list, one line per task, numbered
// from 1. An empty list prints a single placeholder line unless quiet.
func FormatList(w io.Writer, tasks []task.Task, quiet bool) {
	if len(tasks) == 0 {
		if !quiet {
			fmt.Fprintln(w, "no tasks")
		}
		return
	}
	for i, t := range tasks {
		FormatTask(w, i+1, t)
	}
}

// normalizeText normalizes task text for display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}
