package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
)

// Task is one line of the progress display.
type Task struct {
	ID       TaskID
	Name     string
	Status   TaskStatus
	Message  string
	Items    int
	Pages    int
	LastPage int
	Error    error
}

// NewTask creates a pending task.
func NewTask(id TaskID, name string) Task {
	return Task{
		ID:     id,
		Name:   name,
		Status: StatusPending,
	}
}

// apply returns t updated with the non-zero fields of e.
func (t Task) apply(e TaskEvent) Task {
	t.Status = e.Status
	if e.Message != "" {
		t.Message = e.Message
	}
	if e.Items > 0 {
		t.Items = e.Items
	}
	if e.Pages > 0 {
		t.Pages = e.Pages
	}
	if e.LastPage > 0 {
		t.LastPage = e.LastPage
	}
	if e.Error != nil {
		t.Error = e.Error
	}
	return t
}

// Fraction reports how many of the catalog's pages are loaded, from 0 to 1.
func (t Task) Fraction() float64 {
	if t.LastPage <= 0 || t.Pages <= 0 {
		return 0
	}
	if t.Pages >= t.LastPage {
		return 1
	}
	return float64(t.Pages) / float64(t.LastPage)
}

// View renders the task on a single line.
func (t Task) View(spinnerFrame string, bar progress.Model) string {
	name := taskNameStyle.Render(t.Name)
	if t.Status == StatusPending {
		name = taskDimStyle.Render(t.Name)
	}
	line := fmt.Sprintf("  %s %s", StatusIcon(t.Status, spinnerFrame), name)

	if t.Status == StatusRunning && t.LastPage > 1 && t.Pages > 0 {
		line += " " + bar.ViewAs(t.Fraction())
	}

	var detail string
	switch {
	case t.Message != "":
		detail = t.Message
	case t.LastPage > 0 && t.Items > 0:
		detail = fmt.Sprintf("%d products, %d/%d pages", t.Items, t.Pages, t.LastPage)
	case t.LastPage > 0:
		detail = fmt.Sprintf("%d/%d pages", t.Pages, t.LastPage)
	case t.Items > 0:
		detail = fmt.Sprintf("%d products", t.Items)
	}
	if detail != "" {
		line += " " + messageStyle.Render(detail)
	}

	if t.Error != nil {
		line += " " + errorStyle.Render(t.Error.Error())
	}

	return line
}
