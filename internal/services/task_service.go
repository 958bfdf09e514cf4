package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tasktracker/internal/authz"
	"tasktracker/internal/events"
	"tasktracker/internal/models"
	"tasktracker/internal/repositories"
)

const validationFailed = "Validation failed"

type CreateTaskInput struct {
	Title          string              `json:"title" binding:"required,max=100"`
	Description    string              `json:"description" binding:"max=500"`
	Status         models.TaskStatus   `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority       models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate        string              `json:"dueDate"` // RFC3339 или YYYY-MM-DD
	AssigneeEmail  string              `json:"assigneeEmail" binding:"omitempty,email"`
	Tags           []string            `json:"tags" binding:"omitempty,dive,max=20"`
	EstimatedHours *float64            `json:"estimatedHours" binding:"omitempty,min=0,max=1000"`
	ActualHours    *float64            `json:"actualHours" binding:"omitempty,min=0"`
}

// UpdateTaskInput is a partial update: nil fields are left untouched.
// An empty dueDate or assigneeEmail clears the value.
type UpdateTaskInput struct {
	Title          *string              `json:"title" binding:"omitempty,max=100"`
	Description    *string              `json:"description" binding:"omitempty,max=500"`
	Status         *models.TaskStatus   `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority       *models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate        *string              `json:"dueDate"`
	AssigneeEmail  *string              `json:"assigneeEmail" binding:"omitempty,email"`
	Tags           *[]string            `json:"tags" binding:"omitempty,dive,max=20"`
	EstimatedHours *float64             `json:"estimatedHours" binding:"omitempty,min=0,max=1000"`
	ActualHours    *float64             `json:"actualHours" binding:"omitempty,min=0"`
}

// BulkTaskUpdates is the complete set of fields a bulk update may change.
type BulkTaskUpdates struct {
	Status         *models.TaskStatus   `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority       *models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate        *string              `json:"dueDate"`
	Tags           *[]string            `json:"tags" binding:"omitempty,dive,max=20"`
	EstimatedHours *float64             `json:"estimatedHours" binding:"omitempty,min=0,max=1000"`
	ActualHours    *float64             `json:"actualHours" binding:"omitempty,min=0"`
}

type BulkUpdateInput struct {
	TaskIDs []string
	Updates BulkTaskUpdates
}

// UserLookup resolves assignees by email.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type TaskService interface {
	List(ctx context.Context, who models.Identity, params TaskListParams) (*models.TaskPage, error)
	Get(ctx context.Context, who models.Identity, id string) (*models.Task, error)
	Create(ctx context.Context, who models.Identity, in CreateTaskInput) (*models.Task, error)
	Update(ctx context.Context, who models.Identity, id string, in UpdateTaskInput) (*models.Task, error)
	Delete(ctx context.Context, who models.Identity, id string) error
	Stats(ctx context.Context, who models.Identity) (*models.TaskStats, error)
	BulkUpdate(ctx context.Context, who models.Identity, in BulkUpdateInput) (*models.BulkResult, error)
	Export(ctx context.Context, who models.Identity) ([]models.Task, error)
}

type taskService struct {
	repo      repositories.TaskRepository
	users     UserLookup
	filters   *TaskFilterBuilder
	notifier  AssignmentNotifier
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
}

func NewTaskService(
	repo repositories.TaskRepository,
	users UserLookup,
	filters *TaskFilterBuilder,
	notifier AssignmentNotifier,
	publisher events.Publisher,
	loc *time.Location,
) TaskService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &taskService{
		repo:      repo,
		users:     users,
		filters:   filters,
		notifier:  notifier,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
	}
}

// parseTaskID maps malformed ids to not found, same as foreign ids.
func parseTaskID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, models.ErrTaskNotFound
	}
	return id, nil
}

func (s *taskService) List(ctx context.Context, who models.Identity, params TaskListParams) (*models.TaskPage, error) {
	filter := s.filters.Build(params, who.ID, models.ScopeOwned)

	var (
		tasks []models.Task
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.repo.FindAll(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return &models.TaskPage{
		Tasks:      tasks,
		Pagination: models.NewPagination(filter.Page, filter.Limit, len(tasks), total),
	}, nil
}

func (s *taskService) Get(ctx context.Context, who models.Identity, id string) (*models.Task, error) {
	taskID, err := parseTaskID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.FindVisibleByID(ctx, taskID, who.ID)
}

func (s *taskService) Create(ctx context.Context, who models.Identity, in CreateTaskInput) (*models.Task, error) {
	now := s.now()
	verr := models.NewValidationError(validationFailed)

	task := &models.Task{
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Status:         in.Status,
		Priority:       in.Priority,
		CreatedBy:      who.Ref(),
		Tags:           normalizeTags(in.Tags),
		EstimatedHours: in.EstimatedHours,
		ActualHours:    in.ActualHours,
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if strings.TrimSpace(in.DueDate) != "" {
		task.DueDate = s.parseDueDate(verr, in.DueDate, now)
	}
	validateTask(verr, task)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	assignee, err := s.applyAssignee(ctx, task, in.AssigneeEmail)
	if err != nil {
		return nil, err
	}
	task.ApplyStatusTransition(now)

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	log.Printf("[task][create][ok] id=%s by=%s assignee=%v", task.ID, who.ID, task.AssigneeID())

	s.notify(task, assignee, who)
	s.publish(ctx, events.TaskEvent{
		Action:  events.ActionTaskCreated,
		TaskIDs: []uuid.UUID{task.ID},
		UserID:  who.ID,
		Changes: map[string]interface{}{"title": task.Title, "status": task.Status, "priority": task.Priority},
	})
	return task, nil
}

func (s *taskService) Update(ctx context.Context, who models.Identity, id string, in UpdateTaskInput) (*models.Task, error) {
	taskID, err := parseTaskID(id)
	if err != nil {
		return nil, err
	}
	task, err := s.repo.FindOwnedByID(ctx, taskID, who.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	verr := models.NewValidationError(validationFailed)
	changes := map[string]interface{}{}

	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
		changes["title"] = task.Title
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
		changes["description"] = task.Description
	}
	if in.Status != nil {
		task.Status = *in.Status
		changes["status"] = task.Status
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
		changes["priority"] = task.Priority
	}
	if in.DueDate != nil {
		if strings.TrimSpace(*in.DueDate) == "" {
			task.DueDate = nil
		} else {
			task.DueDate = s.parseDueDate(verr, *in.DueDate, now)
		}
		changes["dueDate"] = task.DueDate
	}
	if in.Tags != nil {
		task.Tags = normalizeTags(*in.Tags)
		changes["tags"] = task.Tags
	}
	if in.EstimatedHours != nil {
		task.EstimatedHours = in.EstimatedHours
		changes["estimatedHours"] = *in.EstimatedHours
	}
	if in.ActualHours != nil {
		task.ActualHours = in.ActualHours
		changes["actualHours"] = *in.ActualHours
	}
	validateTask(verr, task)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	prevAssignee := task.AssigneeID()
	var assignee *models.User
	if in.AssigneeEmail != nil {
		if assignee, err = s.applyAssignee(ctx, task, *in.AssigneeEmail); err != nil {
			return nil, err
		}
		changes["assigneeName"] = task.AssigneeName
	}
	task.ApplyStatusTransition(now)

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	log.Printf("[task][update][ok] id=%s by=%s fields=%d", task.ID, who.ID, len(changes))

	if assignee != nil && (!prevAssignee.Valid || prevAssignee.UUID != assignee.ID) {
		s.notify(task, assignee, who)
	}
	s.publish(ctx, events.TaskEvent{
		Action:  events.ActionTaskUpdated,
		TaskIDs: []uuid.UUID{task.ID},
		UserID:  who.ID,
		Changes: changes,
	})
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, who models.Identity, id string) error {
	taskID, err := parseTaskID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, taskID, who.ID); err != nil {
		return err
	}
	log.Printf("[task][delete][ok] id=%s by=%s", taskID, who.ID)

	s.publish(ctx, events.TaskEvent{
		Action:  events.ActionTaskDeleted,
		TaskIDs: []uuid.UUID{taskID},
		UserID:  who.ID,
	})
	return nil
}

func (s *taskService) Stats(ctx context.Context, who models.Identity) (*models.TaskStats, error) {
	return s.repo.Stats(ctx, who.ID, s.now())
}

func (s *taskService) BulkUpdate(ctx context.Context, who models.Identity, in BulkUpdateInput) (*models.BulkResult, error) {
	if !authz.IsElevated(who.Role) {
		return nil, models.ErrForbidden
	}
	if len(in.TaskIDs) == 0 {
		return nil, models.NewValidationError("Task IDs array is required")
	}

	now := s.now()
	verr := models.NewValidationError(validationFailed)

	ids := make([]uuid.UUID, 0, len(in.TaskIDs))
	seen := make(map[uuid.UUID]struct{}, len(in.TaskIDs))
	for i, raw := range in.TaskIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			verr.Add(fmt.Sprintf("taskIds[%d]", i), "Invalid task ID")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	u := in.Updates
	patch := models.TaskBulkPatch{
		Status:         u.Status,
		Priority:       u.Priority,
		EstimatedHours: u.EstimatedHours,
		ActualHours:    u.ActualHours,
	}
	if u.Status != nil && !u.Status.Valid() {
		verr.Add("status", "Status must be pending, in-progress, or completed")
	}
	if u.Priority != nil && !u.Priority.Valid() {
		verr.Add("priority", "Priority must be low, medium, or high")
	}
	if u.DueDate != nil {
		patch.DueDate = s.parseDueDate(verr, *u.DueDate, now)
	}
	if u.Tags != nil {
		tags := normalizeTags(*u.Tags)
		validateTags(verr, tags)
		patch.Tags = &tags
	}
	validateHours(verr, u.EstimatedHours, u.ActualHours)
	if patch.Empty() {
		verr.Add("updates", "At least one updatable field is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	res, err := s.repo.BulkUpdate(ctx, who.ID, ids, patch, now)
	if err != nil {
		return nil, err
	}
	log.Printf("[task][bulk][ok] by=%s requested=%d matched=%d modified=%d",
		who.ID, len(ids), res.MatchedCount, res.ModifiedCount)

	s.publish(ctx, events.TaskEvent{
		Action:  events.ActionTaskBulk,
		TaskIDs: ids,
		UserID:  who.ID,
		Changes: map[string]interface{}{
			"matchedCount":  res.MatchedCount,
			"modifiedCount": res.ModifiedCount,
		},
	})
	return res, nil
}

func (s *taskService) Export(ctx context.Context, who models.Identity) ([]models.Task, error) {
	return s.repo.FindAll(ctx, models.TaskFilter{
		UserID:   who.ID,
		Scope:    models.ScopeVisible,
		SortBy:   defaultSortBy,
		SortDesc: true,
	})
}

// applyAssignee resolves email to a user: a match sets the reference and full
// name, an unknown email is kept as plain text, an empty one clears both.
func (s *taskService) applyAssignee(ctx context.Context, task *models.Task, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		task.Assignee = nil
		task.AssigneeName = ""
		return nil, nil
	}
	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		task.Assignee = nil
		task.AssigneeName = email
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("resolve assignee: %w", err)
	}
	ref := u.Ref()
	task.Assignee = &ref
	task.AssigneeName = u.FullName()
	return u, nil
}

func (s *taskService) notify(task *models.Task, assignee *models.User, who models.Identity) {
	if s.notifier == nil || assignee == nil || assignee.ID == who.ID {
		return
	}
	s.notifier.NotifyAssigned(task, assignee)
}

func (s *taskService) publish(ctx context.Context, ev events.TaskEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now().UTC()
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Printf("[task][events][err] action=%s: %v", ev.Action, err)
	}
}

// parseDueDate accepts RFC3339 or a calendar date in the server zone and
// requires the result not to be in the past.
func (s *taskService) parseDueDate(verr *models.ValidationError, raw string, now time.Time) *time.Time {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.ParseInLocation(dueDateLayout, raw, s.loc)
	}
	if err != nil {
		verr.Add("dueDate", "Due date must be a valid date")
		return nil
	}
	if t.Before(now) {
		verr.Add("dueDate", "Due date cannot be in the past")
		return nil
	}
	return &t
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func validateTask(verr *models.ValidationError, t *models.Task) {
	switch n := utf8.RuneCountInString(t.Title); {
	case n == 0:
		verr.Add("title", "Title is required")
	case n > models.TitleMaxLen:
		verr.Add("title", fmt.Sprintf("Title must be less than %d characters", models.TitleMaxLen))
	}
	if utf8.RuneCountInString(t.Description) > models.DescriptionMaxLen {
		verr.Add("description", fmt.Sprintf("Description must be less than %d characters", models.DescriptionMaxLen))
	}
	if !t.Status.Valid() {
		verr.Add("status", "Status must be pending, in-progress, or completed")
	}
	if !t.Priority.Valid() {
		verr.Add("priority", "Priority must be low, medium, or high")
	}
	validateTags(verr, t.Tags)
	validateHours(verr, t.EstimatedHours, t.ActualHours)
}

func validateTags(verr *models.ValidationError, tags []string) {
	for i, tag := range tags {
		if utf8.RuneCountInString(tag) > models.TagMaxLen {
			verr.Add(fmt.Sprintf("tags[%d]", i), fmt.Sprintf("Tag must be less than %d characters", models.TagMaxLen))
		}
	}
}

func validateHours(verr *models.ValidationError, estimated, actual *float64) {
	if estimated != nil && (*estimated < 0 || *estimated > models.EstimatedHoursMax) {
		verr.Add("estimatedHours", fmt.Sprintf("Estimated hours must be between 0 and %d", models.EstimatedHoursMax))
	}
	if actual != nil && *actual < 0 {
		verr.Add("actualHours", "Actual hours cannot be negative")
	}
}
