package model

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	DueDate     string       `json:"dueDate"`
	Priority    TaskPriority `json:"priority"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// DueDateLayout is the calendar-date layout the document store keeps dueDate in.
const DueDateLayout = "2006-01-02"

// Due parses DueDate. Full RFC3339 timestamps are accepted too, since
// browser clients sometimes store them.
func (t Task) Due() (time.Time, bool) {
	if d, err := time.Parse(DueDateLayout, t.DueDate); err == nil {
		return d, true
	}
	if d, err := time.Parse(time.RFC3339, t.DueDate); err == nil {
		return d, true
	}
	return time.Time{}, false
}
