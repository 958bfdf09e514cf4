package models

import "math"

type TaskStats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	InProgress     int `json:"inProgress"`
	Overdue        int `json:"overdue"`
	HighPriority   int `json:"highPriority"`
	CompletionRate int `json:"completionRate"`
}

// CompletionRate returns completed/total as a whole percentage, rounded half up.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(completed)*100/float64(total) + 0.5))
}

type UserStats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByRole   map[string]int `json:"byRole"`
}
