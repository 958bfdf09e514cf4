package models

import "time"

// TaskBulkPatch lists the only fields a bulk update may touch.
type TaskBulkPatch struct {
	Status         *TaskStatus
	Priority       *TaskPriority
	DueDate        *time.Time
	Tags           *[]string
	EstimatedHours *float64
	ActualHours    *float64
}

func (p TaskBulkPatch) Empty() bool {
	return p.Status == nil && p.Priority == nil && p.DueDate == nil &&
		p.Tags == nil && p.EstimatedHours == nil && p.ActualHours == nil
}

type BulkResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}
