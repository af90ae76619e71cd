package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (a *App) View() string {
	switch a.view {
	case ViewLogin, ViewSignup:
		return a.viewAuth()
	default:
		return a.viewTasks()
	}
}

func (a *App) viewAuth() string {
	var b strings.Builder

	if a.view == ViewLogin {
		b.WriteString(titleStyle.Render("Sign in"))
	} else {
		b.WriteString(titleStyle.Render("Create account"))
	}
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Email"))
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.email.View()))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Password"))
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.password.View()))
	b.WriteString("\n")

	if a.authBusy {
		b.WriteString("\n" + a.spinner.View() + " signing in...\n")
	}
	if a.authErr != "" {
		b.WriteString("\n" + errorStyle.Render(a.authErr) + "\n")
	}

	var hint string
	if a.view == ViewLogin {
		hint = "enter: sign in • ctrl+s: create an account instead • ctrl+c: quit"
	} else {
		hint = "enter: create account • ctrl+s: sign in instead • ctrl+c: quit"
	}
	b.WriteString(helpStyle.Render(hint))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (a *App) viewTasks() string {
	var b strings.Builder

	title := "Tasks"
	if id := a.gateway.Current(); id != nil {
		title = fmt.Sprintf("Tasks — %s", id.Email)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	b.WriteString(inputBoxStyle.Render(a.taskInput.View()))
	b.WriteString("\n\n")

	switch {
	case a.snap.Loading:
		b.WriteString(a.spinner.View() + " loading tasks...\n")
	case len(a.snap.Tasks) == 0:
		b.WriteString(statusStyle.Render("No tasks yet. Type above and press enter.") + "\n")
	default:
		for i, t := range a.snap.Tasks {
			cursor := "  "
			if a.focus == FocusList && i == a.cursor {
				cursor = cursorStyle.Render("> ")
			}
			check := "[ ]"
			line := t.Text
			if t.Completed {
				check = "[x]"
				line = doneStyle.Render(line)
			}
			b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, check, line))
		}
	}

	var hint string
	if a.focus == FocusInput {
		hint = "enter: add • tab: select tasks • ctrl+c: quit"
	} else {
		hint = "space: toggle • d: delete • j/k: move • tab: type • ctrl+c: quit"
	}
	if a.remote && a.gateway.Current() != nil {
		hint += " • ctrl+l: logout"
	}
	b.WriteString(helpStyle.Render(hint))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
