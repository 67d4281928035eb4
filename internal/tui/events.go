package tui

// TaskID identifies a step in the progress display.
type TaskID int

const (
	TaskAuth   TaskID = iota // checking the session token
	TaskFetch                // fetching catalog pages
	TaskRender               // preparing output
)

// TaskStatus is where a task is in its lifecycle.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusComplete
	StatusError
	StatusSkipped
)

// Event is anything the progress display reacts to.
type Event interface {
	isEvent()
}

// TaskEvent updates one task. Zero fields leave the task's value unchanged.
type TaskEvent struct {
	Task     TaskID
	Status   TaskStatus
	Message  string
	Items    int // products loaded so far
	Pages    int // pages visible so far
	LastPage int
	Error    error
}

func (TaskEvent) isEvent() {}

// NoticeEvent shows a one-line notice under the task list.
type NoticeEvent struct {
	Message string
}

func (NoticeEvent) isEvent() {}

// DoneEvent signals that all work is complete.
type DoneEvent struct{}

func (DoneEvent) isEvent() {}
