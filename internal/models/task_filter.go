package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskScope selects which ownership rule a query runs under.
type TaskScope int

const (
	// ScopeOwned: только задачи, созданные пользователем.
	ScopeOwned TaskScope = iota
	// ScopeVisible: созданные пользователем или назначенные на него.
	ScopeVisible
)

// TaskFilter is the normalized, store-agnostic form of a task listing request.
// A nil pointer means the predicate is not applied.
type TaskFilter struct {
	UserID uuid.UUID
	Scope  TaskScope

	Status     *TaskStatus
	Priority   *TaskPriority
	AssigneeID *uuid.UUID
	Search     string
	DueFrom    *time.Time
	DueTo      *time.Time

	// MatchNone is set when a filter value could not be interpreted
	// (bad date, bad assignee id); the query must then return nothing.
	MatchNone bool

	SortBy   string
	SortDesc bool
	Page     int
	Limit    int
}

func (f TaskFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination is returned alongside every paginated listing.
type Pagination struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Count      int `json:"count"`
	TotalCount int `json:"totalCount"`
}

func NewPagination(page, limit, count, totalCount int) Pagination {
	total := 0
	if limit > 0 {
		total = (totalCount + limit - 1) / limit
	}
	return Pagination{Current: page, Total: total, Count: count, TotalCount: totalCount}
}

// TaskPage is one page of tasks together with its pagination block.
type TaskPage struct {
	Tasks      []Task
	Pagination Pagination
}
