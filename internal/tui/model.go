package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model renders catalog loading progress inline while a non-interactive
// command runs.
type Model struct {
	tasks    []Task
	spinner  spinner.Model
	bar      progress.Model
	events   <-chan Event
	done     bool
	username string
	notices  []string
}

// doneMsg signals that the event channel was closed.
type doneMsg struct{}

// DefaultTasks returns the steps of loading the catalog.
func DefaultTasks() []Task {
	return []Task{
		NewTask(TaskAuth, "Checking session"),
		NewTask(TaskFetch, "Fetching products"),
		NewTask(TaskRender, "Preparing output"),
	}
}

// NewModel creates a progress display fed by events.
func NewModel(events <-chan Event) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		tasks:   DefaultTasks(),
		spinner: s,
		bar: progress.New(
			progress.WithScaledGradient("#34d399", "#065f46"),
			progress.WithWidth(25),
			progress.WithoutPercentage(),
		),
		events: events,
	}
}

// Init starts the spinner and begins reading events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case TaskEvent:
		cmd := m.applyTask(msg)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case NoticeEvent:
		m.notices = append(m.notices, msg.Message)
		return m, waitForEvent(m.events)

	case DoneEvent, doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// applyTask folds e into its task. The tasks slice is copied because
// Model is passed by value.
func (m *Model) applyTask(e TaskEvent) tea.Cmd {
	tasks := make([]Task, len(m.tasks))
	copy(tasks, m.tasks)
	m.tasks = tasks

	for i := range tasks {
		if tasks[i].ID != e.Task {
			continue
		}
		tasks[i] = tasks[i].apply(e)

		if e.Task == TaskAuth && e.Status == StatusComplete && e.Message != "" {
			m.username = e.Message
		}
		if e.Pages > 0 {
			return m.bar.SetPercent(tasks[i].Fraction())
		}
		return nil
	}
	return nil
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	for _, task := range m.tasks {
		if task.ID == TaskAuth && task.Status == StatusComplete && m.username != "" {
			b.WriteString("  " + iconComplete + " Signed in as " + userStyle.Render(m.username) + "\n")
			continue
		}
		b.WriteString(task.View(m.spinner.View(), m.bar))
		b.WriteString("\n")
	}

	for _, n := range m.notices {
		b.WriteString("\n" + warnStyle.Render("  "+n) + "\n")
	}

	if !m.done {
		b.WriteString(footerStyle.Render("\n  Press Ctrl+C to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

// waitForEvent reads the next event, or reports doneMsg once events closes.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}
