package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
)

func TestTaskFilterBuilder_Defaults(t *testing.T) {
	b := NewTaskFilterBuilder(10, 100, time.UTC)
	uid := uuid.New()

	f := b.Build(TaskListParams{}, uid, models.ScopeOwned)

	assert.Equal(t, uid, f.UserID)
	assert.Equal(t, models.ScopeOwned, f.Scope)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, "createdAt", f.SortBy)
	assert.True(t, f.SortDesc)
	assert.Nil(t, f.Status)
	assert.Nil(t, f.Priority)
	assert.Nil(t, f.AssigneeID)
	assert.False(t, f.MatchNone)
}

func TestTaskFilterBuilder_PageAndLimit(t *testing.T) {
	b := NewTaskFilterBuilder(10, 100, time.UTC)

	cases := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"0", "0", 1, 10},
		{"-3", "-1", 1, 10},
		{"abc", "xyz", 1, 10},
		{"3", "25", 3, 25},
		{"2", "1000", 2, 100},
	}
	for _, tc := range cases {
		f := b.Build(TaskListParams{Page: tc.page, Limit: tc.limit}, uuid.New(), models.ScopeOwned)
		assert.Equal(t, tc.wantPage, f.Page, "page=%q", tc.page)
		assert.Equal(t, tc.wantLimit, f.Limit, "limit=%q", tc.limit)
	}
}

func TestTaskFilterBuilder_AllIsNoFilter(t *testing.T) {
	b := NewTaskFilterBuilder(10, 100, time.UTC)

	f := b.Build(TaskListParams{Status: "all", Priority: "all", Assignee: "all"}, uuid.New(), models.ScopeOwned)
	assert.Nil(t, f.Status)
	assert.Nil(t, f.Priority)
	assert.Nil(t, f.AssigneeID)

	f = b.Build(TaskListParams{Status: "completed", Priority: "high"}, uuid.New(), models.ScopeOwned)
	require.NotNil(t, f.Status)
	require.NotNil(t, f.Priority)
	assert.Equal(t, models.StatusCompleted, *f.Status)
	assert.Equal(t, models.PriorityHigh, *f.Priority)
}

func TestTaskFilterBuilder_Assignee(t *testing.T) {
	b := NewTaskFilterBuilder(10, 100, time.UTC)
	id := uuid.New()

	f := b.Build(TaskListParams{Assignee: id.String()}, uuid.New(), models.ScopeOwned)
	require.NotNil(t, f.AssigneeID)
	assert.Equal(t, id, *f.AssigneeID)

	f = b.Build(TaskListParams{Assignee: "bob"}, uuid.New(), models.ScopeOwned)
	assert.True(t, f.MatchNone)
}

func TestTaskFilterBuilder_DueDateDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	b := NewTaskFilterBuilder(10, 100, loc)

	f := b.Build(TaskListParams{DueDate: "2025-05-01"}, uuid.New(), models.ScopeOwned)
	require.NotNil(t, f.DueFrom)
	require.NotNil(t, f.DueTo)
	assert.True(t, f.DueFrom.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, 24*time.Hour, f.DueTo.Sub(*f.DueFrom))

	// 2025-05-01T22:00Z это уже 2 мая в UTC+5
	f = b.Build(TaskListParams{DueDate: "2025-05-01T22:00:00Z"}, uuid.New(), models.ScopeOwned)
	require.NotNil(t, f.DueFrom)
	assert.True(t, f.DueFrom.Equal(time.Date(2025, 5, 2, 0, 0, 0, 0, loc)))

	f = b.Build(TaskListParams{DueDate: "tomorrow"}, uuid.New(), models.ScopeOwned)
	assert.True(t, f.MatchNone)
	assert.Nil(t, f.DueFrom)
}

func TestTaskFilterBuilder_Sort(t *testing.T) {
	b := NewTaskFilterBuilder(10, 100, time.UTC)

	f := b.Build(TaskListParams{SortBy: "dueDate", SortOrder: "asc"}, uuid.New(), models.ScopeOwned)
	assert.Equal(t, "dueDate", f.SortBy)
	assert.False(t, f.SortDesc)

	f = b.Build(TaskListParams{SortBy: "password_hash", SortOrder: "sideways"}, uuid.New(), models.ScopeOwned)
	assert.Equal(t, "createdAt", f.SortBy)
	assert.True(t, f.SortDesc)
}
