// internal/models/task.go
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Ограничения полей задачи
const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 500
	TagMaxLen         = 20
	EstimatedHoursMax = 1000
)

// Task represents the structure of a task in the system.
type Task struct {
	ID             uuid.UUID    `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	DueDate        *time.Time   `json:"dueDate"`
	Assignee       *UserRef     `json:"assignee"`
	AssigneeName   string       `json:"assigneeName,omitempty"`
	CreatedBy      UserRef      `json:"createdBy"`
	Tags           []string     `json:"tags"`
	CompletedAt    *time.Time   `json:"completedAt"`
	EstimatedHours *float64     `json:"estimatedHours,omitempty"`
	ActualHours    *float64     `json:"actualHours,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// AssigneeID returns the referenced assignee id, if any.
func (t *Task) AssigneeID() uuid.NullUUID {
	if t.Assignee == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: t.Assignee.ID, Valid: true}
}

// ApplyStatusTransition keeps completedAt in sync with status:
// completed without a timestamp gets now, any other status clears it.
func (t *Task) ApplyStatusTransition(now time.Time) {
	if t.Status == StatusCompleted {
		if t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
		return
	}
	t.CompletedAt = nil
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// DaysUntilDue rounds up to whole days; nil when there is no due date.
func (t *Task) DaysUntilDue(now time.Time) *int {
	if t.DueDate == nil {
		return nil
	}
	days := int(math.Ceil(t.DueDate.Sub(now).Hours() / 24))
	return &days
}

// TaskView is the API shape of a task with the derived fields filled in.
type TaskView struct {
	*Task
	IsOverdue    bool `json:"isOverdue"`
	DaysUntilDue *int `json:"daysUntilDue"`
}

func (t *Task) View(now time.Time) TaskView {
	return TaskView{Task: t, IsOverdue: t.IsOverdue(now), DaysUntilDue: t.DaysUntilDue(now)}
}

func TaskViews(tasks []Task, now time.Time) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, tasks[i].View(now))
	}
	return out
}
