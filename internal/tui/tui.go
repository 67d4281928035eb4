package tui

import (
	"context"
	"errors"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spiffcs/storefront/internal/cart"
	"github.com/spiffcs/storefront/internal/catalog"
	"github.com/spiffcs/storefront/internal/shopclient"
	"golang.org/x/term"
)

// Progress is a progress display running in the background. A nil
// *Progress discards everything sent to it.
type Progress struct {
	events chan Event
	done   chan error
	once   sync.Once
	err    error
}

// StartProgress starts an inline progress display.
func StartProgress() *Progress {
	p := &Progress{
		events: make(chan Event, 100),
		done:   make(chan error, 1),
	}
	go func() {
		_, err := tea.NewProgram(NewModel(p.events)).Run()
		p.done <- err
	}()
	return p
}

// Task sends a task update.
func (p *Progress) Task(task TaskID, status TaskStatus, opts ...TaskEventOption) {
	if p == nil {
		return
	}
	SendTaskEvent(p.events, task, status, opts...)
}

// Notice shows msg under the task list.
func (p *Progress) Notice(msg string) {
	if p == nil {
		return
	}
	SendEvent(p.events, NoticeEvent{Message: msg})
}

// Close stops the display and waits for it to finish drawing. It is safe
// to call more than once.
func (p *Progress) Close() error {
	if p == nil {
		return nil
	}
	p.once.Do(func() {
		close(p.events)
		p.err = <-p.done
	})
	return p.err
}

// ShouldUseTUI returns true if the TUI should be used based on environment.
func ShouldUseTUI() bool {
	// Check if stdout is a TTY
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	// Check for CI environment variables
	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"GITLAB_CI",
		"BUILDKITE",
	}

	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return false
		}
	}

	return true
}

// SendEvent sends an event to the channel in a non-blocking manner.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
		// Non-blocking send - drop event if channel is full
	}
}

// SendTaskEvent is a convenience function for sending task events.
func SendTaskEvent(ch chan<- Event, task TaskID, status TaskStatus, opts ...TaskEventOption) {
	e := TaskEvent{
		Task:   task,
		Status: status,
	}
	for _, opt := range opts {
		opt(&e)
	}
	SendEvent(ch, e)
}

// TaskEventOption is a functional option for TaskEvent.
type TaskEventOption func(*TaskEvent)

// WithMessage sets the message on a TaskEvent.
func WithMessage(msg string) TaskEventOption {
	return func(e *TaskEvent) {
		e.Message = msg
	}
}

// WithItems sets how many products are loaded.
func WithItems(n int) TaskEventOption {
	return func(e *TaskEvent) {
		e.Items = n
	}
}

// WithPages sets how many of the catalog's pages are visible.
func WithPages(visible, last int) TaskEventOption {
	return func(e *TaskEvent) {
		e.Pages = visible
		e.LastPage = last
	}
}

// WithError sets the error on a TaskEvent.
func WithError(err error) TaskEventOption {
	return func(e *TaskEvent) {
		e.Error = err
	}
}

// RunCatalog starts the interactive catalog browser and blocks until the
// user quits. It returns shopclient.ErrUnauthorized when the session
// expired while browsing.
func RunCatalog(ctx context.Context, products *catalog.Cache, c *cart.Cart, opts ...CatalogOption) error {
	model := NewCatalogModel(ctx, products, c, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if m, ok := final.(CatalogModel); ok && m.Unauthorized() {
		return shopclient.ErrUnauthorized
	}
	return nil
}
