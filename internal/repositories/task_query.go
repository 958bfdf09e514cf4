package repositories

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tasktracker/internal/models"
)

const taskSelect = `
SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date,
       t.assignee_id, a.first_name, a.last_name, a.username, t.assignee_name,
       t.created_by, c.first_name, c.last_name, c.username,
       t.tags, t.completed_at, t.estimated_hours, t.actual_hours,
       t.created_at, t.updated_at
FROM tasks t
LEFT JOIN users a ON a.id = t.assignee_id
LEFT JOIN users c ON c.id = t.created_by`

// sortBy -> ORDER BY expression
var taskSortColumns = map[string]string{
	"createdAt":   "t.created_at",
	"updatedAt":   "t.updated_at",
	"dueDate":     "t.due_date",
	"completedAt": "t.completed_at",
	"title":       "t.title",
	"priority":    "CASE t.priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 END",
	"status":      "CASE t.status WHEN 'pending' THEN 1 WHEN 'in-progress' THEN 2 WHEN 'completed' THEN 3 END",
}

// IsSortableTaskField reports whether name is an allowed sortBy value.
func IsSortableTaskField(name string) bool {
	_, ok := taskSortColumns[name]
	return ok
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildTaskWhere renders the filter into a WHERE clause with $n placeholders.
func buildTaskWhere(f models.TaskFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argID := 1

	switch f.Scope {
	case models.ScopeVisible:
		conditions = append(conditions, fmt.Sprintf("(t.created_by = $%d OR t.assignee_id = $%d)", argID, argID))
	default:
		conditions = append(conditions, fmt.Sprintf("t.created_by = $%d", argID))
	}
	args = append(args, f.UserID)
	argID++

	if f.MatchNone {
		conditions = append(conditions, "FALSE")
	}
	if f.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argID))
		args = append(args, string(*f.Status))
		argID++
	}
	if f.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("t.priority = $%d", argID))
		args = append(args, string(*f.Priority))
		argID++
	}
	if f.AssigneeID != nil {
		conditions = append(conditions, fmt.Sprintf("t.assignee_id = $%d", argID))
		args = append(args, *f.AssigneeID)
		argID++
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(t.title ILIKE $%d OR t.description ILIKE $%d OR t.assignee_name ILIKE $%d)", argID, argID, argID))
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		argID++
	}
	if f.DueFrom != nil {
		conditions = append(conditions, fmt.Sprintf("t.due_date >= $%d", argID))
		args = append(args, *f.DueFrom)
		argID++
	}
	if f.DueTo != nil {
		conditions = append(conditions, fmt.Sprintf("t.due_date < $%d", argID))
		args = append(args, *f.DueTo)
		argID++
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

func buildTaskOrder(f models.TaskFilter) string {
	col, ok := taskSortColumns[f.SortBy]
	if !ok {
		col = taskSortColumns["createdAt"]
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	// задачи без даты всегда в конце
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, t.id %s", col, dir, dir)
}

// buildTaskListQuery returns the page query; Limit <= 0 means no paging.
func buildTaskListQuery(f models.TaskFilter) (string, []interface{}) {
	where, args := buildTaskWhere(f)
	q := taskSelect + where + buildTaskOrder(f)
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, f.Limit, f.Offset())
	}
	return q, args
}

func buildTaskCountQuery(f models.TaskFilter) (string, []interface{}) {
	where, args := buildTaskWhere(f)
	return "SELECT COUNT(*) FROM tasks t" + where, args
}

// buildBulkUpdateQuery renders one statement that reports how many of ids the
// owner has (matched) and how many rows actually changed (modified).
func buildBulkUpdateQuery(ownerID uuid.UUID, ids []uuid.UUID, p models.TaskBulkPatch, now time.Time) (string, []interface{}) {
	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}
	args := []interface{}{pq.Array(strIDs), ownerID, now}
	argID := len(args) + 1

	sets := []string{}
	changed := []string{}
	add := func(col string, val interface{}, cast string) {
		sets = append(sets, fmt.Sprintf("%s = $%d%s", col, argID, cast))
		changed = append(changed, fmt.Sprintf("t.%s IS DISTINCT FROM $%d%s", col, argID, cast))
		args = append(args, val)
		argID++
	}

	if p.Status != nil {
		add("status", string(*p.Status), "")
		if *p.Status == models.StatusCompleted {
			sets = append(sets, "completed_at = COALESCE(t.completed_at, $3)")
		} else {
			sets = append(sets, "completed_at = NULL")
		}
	}
	if p.Priority != nil {
		add("priority", string(*p.Priority), "")
	}
	if p.DueDate != nil {
		add("due_date", *p.DueDate, "::timestamptz")
	}
	if p.Tags != nil {
		add("tags", pq.Array(*p.Tags), "::text[]")
	}
	if p.EstimatedHours != nil {
		add("estimated_hours", *p.EstimatedHours, "::double precision")
	}
	if p.ActualHours != nil {
		add("actual_hours", *p.ActualHours, "::double precision")
	}
	sets = append(sets, "updated_at = $3")

	q := `
WITH matched AS (
    SELECT id FROM tasks WHERE id = ANY($1::uuid[]) AND created_by = $2
), updated AS (
    UPDATE tasks t SET ` + strings.Join(sets, ", ") + `
    FROM matched m
    WHERE t.id = m.id AND (` + strings.Join(changed, " OR ") + `)
    RETURNING t.id
)
SELECT (SELECT COUNT(*) FROM matched), (SELECT COUNT(*) FROM updated)`
	return q, args
}
