package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/models"
	"tasktracker/internal/repositories"
)

const (
	filterAll       = "all"
	defaultSortBy   = "createdAt"
	sortOrderAsc    = "asc"
	dueDateLayout   = "2006-01-02"
	fallbackLimit   = 10
	fallbackMaxRows = 100
)

// TaskListParams are the raw query string values of a task listing.
type TaskListParams struct {
	Page      string `form:"page"`
	Limit     string `form:"limit"`
	Status    string `form:"status"`
	Priority  string `form:"priority"`
	Assignee  string `form:"assignee"`
	Search    string `form:"search"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	DueDate   string `form:"dueDate"`
}

// TaskFilterBuilder turns TaskListParams into a models.TaskFilter.
// It never fails: values it cannot use fall back to defaults, or make
// the filter match nothing.
type TaskFilterBuilder struct {
	defaultLimit int
	maxLimit     int
	loc          *time.Location
}

func NewTaskFilterBuilder(defaultLimit, maxLimit int, loc *time.Location) *TaskFilterBuilder {
	if defaultLimit < 1 {
		defaultLimit = fallbackLimit
	}
	if maxLimit < 1 {
		maxLimit = fallbackMaxRows
	}
	if loc == nil {
		loc = time.Local
	}
	return &TaskFilterBuilder{defaultLimit: defaultLimit, maxLimit: maxLimit, loc: loc}
}

func (b *TaskFilterBuilder) Build(p TaskListParams, userID uuid.UUID, scope models.TaskScope) models.TaskFilter {
	f := models.TaskFilter{
		UserID:   userID,
		Scope:    scope,
		Search:   strings.TrimSpace(p.Search),
		SortBy:   defaultSortBy,
		SortDesc: !strings.EqualFold(strings.TrimSpace(p.SortOrder), sortOrderAsc),
		Page:     b.page(p.Page),
		Limit:    b.limit(p.Limit),
	}

	if v, ok := filterValue(p.Status); ok {
		st := models.TaskStatus(v)
		f.Status = &st
	}
	if v, ok := filterValue(p.Priority); ok {
		pr := models.TaskPriority(v)
		f.Priority = &pr
	}
	if v, ok := filterValue(p.Assignee); ok {
		if id, err := uuid.Parse(v); err == nil {
			f.AssigneeID = &id
		} else {
			f.MatchNone = true
		}
	}
	if v := strings.TrimSpace(p.DueDate); v != "" {
		if from, ok := b.startOfDay(v); ok {
			to := from.AddDate(0, 0, 1)
			f.DueFrom, f.DueTo = &from, &to
		} else {
			f.MatchNone = true
		}
	}
	if v := strings.TrimSpace(p.SortBy); repositories.IsSortableTaskField(v) {
		f.SortBy = v
	}
	return f
}

// filterValue drops empty values and the "all" sentinel.
func filterValue(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" || v == filterAll {
		return "", false
	}
	return v, true
}

func (b *TaskFilterBuilder) page(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (b *TaskFilterBuilder) limit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		n = b.defaultLimit
	}
	if n > b.maxLimit {
		n = b.maxLimit
	}
	return n
}

// startOfDay accepts a calendar date or a full RFC3339 timestamp and returns
// the beginning of that day in the server zone.
func (b *TaskFilterBuilder) startOfDay(v string) (time.Time, bool) {
	if d, err := time.ParseInLocation(dueDateLayout, v, b.loc); err == nil {
		return d, true
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	ts = ts.In(b.loc)
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, b.loc), true
}
