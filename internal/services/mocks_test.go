package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/events"
	"tasktracker/internal/models"
	"tasktracker/internal/repositories"
)

// memTaskRepo - in-memory TaskRepository с теми же правилами видимости, что и SQL.
type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
	calls int
}

var _ repositories.TaskRepository = (*memTaskRepo)(nil)

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: map[uuid.UUID]*models.Task{}}
}

func (r *memTaskRepo) seed(owner uuid.UUID, n int, mut func(i int, t *models.Task)) []*models.Task {
	out := make([]*models.Task, 0, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		t := &models.Task{
			ID:        uuid.New(),
			Title:     "task",
			Status:    models.StatusPending,
			Priority:  models.PriorityMedium,
			CreatedBy: models.UserRef{ID: owner},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if mut != nil {
			mut(i, t)
		}
		r.tasks[t.ID] = t
		out = append(out, t)
	}
	return out
}

func inScope(t *models.Task, f models.TaskFilter) bool {
	if t.CreatedBy.ID == f.UserID {
		return true
	}
	return f.Scope == models.ScopeVisible && t.Assignee != nil && t.Assignee.ID == f.UserID
}

func (r *memTaskRepo) match(f models.TaskFilter) []models.Task {
	var res []models.Task
	if f.MatchNone {
		return res
	}
	for _, t := range r.tasks {
		if !inScope(t, f) {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		res = append(res, *t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res
}

func (r *memTaskRepo) Store(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	task.ID = uuid.New()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *memTaskRepo) FindVisibleByID(_ context.Context, id, userID uuid.UUID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	t, ok := r.tasks[id]
	if !ok || !inScope(t, models.TaskFilter{UserID: userID, Scope: models.ScopeVisible}) {
		return nil, models.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTaskRepo) FindOwnedByID(_ context.Context, id, ownerID uuid.UUID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	t, ok := r.tasks[id]
	if !ok || t.CreatedBy.ID != ownerID {
		return nil, models.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTaskRepo) FindAll(_ context.Context, f models.TaskFilter) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	res := r.match(f)
	if f.Limit > 0 {
		off := f.Offset()
		if off >= len(res) {
			return []models.Task{}, nil
		}
		end := off + f.Limit
		if end > len(res) {
			end = len(res)
		}
		res = res[off:end]
	}
	return res, nil
}

func (r *memTaskRepo) Count(_ context.Context, f models.TaskFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return len(r.match(f)), nil
}

func (r *memTaskRepo) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	cur, ok := r.tasks[task.ID]
	if !ok || cur.CreatedBy.ID != task.CreatedBy.ID {
		return models.ErrTaskNotFound
	}
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	t, ok := r.tasks[id]
	if !ok || t.CreatedBy.ID != ownerID {
		return models.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) Stats(_ context.Context, userID uuid.UUID, now time.Time) (*models.TaskStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	st := &models.TaskStats{}
	for _, t := range r.match(models.TaskFilter{UserID: userID, Scope: models.ScopeVisible}) {
		st.Total++
		switch t.Status {
		case models.StatusCompleted:
			st.Completed++
		case models.StatusPending:
			st.Pending++
		case models.StatusInProgress:
			st.InProgress++
		}
		if t.IsOverdue(now) {
			st.Overdue++
		}
		if t.Priority == models.PriorityHigh {
			st.HighPriority++
		}
	}
	st.CompletionRate = models.CompletionRate(st.Completed, st.Total)
	return st, nil
}

func (r *memTaskRepo) BulkUpdate(_ context.Context, ownerID uuid.UUID, ids []uuid.UUID, patch models.TaskBulkPatch, now time.Time) (*models.BulkResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	res := &models.BulkResult{}
	for _, id := range ids {
		t, ok := r.tasks[id]
		if !ok || t.CreatedBy.ID != ownerID {
			continue
		}
		res.MatchedCount++
		before := *t
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.DueDate != nil {
			t.DueDate = patch.DueDate
		}
		if patch.Tags != nil {
			t.Tags = *patch.Tags
		}
		if patch.EstimatedHours != nil {
			t.EstimatedHours = patch.EstimatedHours
		}
		if patch.ActualHours != nil {
			t.ActualHours = patch.ActualHours
		}
		t.ApplyStatusTransition(now)
		if before.Status != t.Status || before.Priority != t.Priority || before.DueDate != t.DueDate ||
			patch.Tags != nil || patch.EstimatedHours != nil || patch.ActualHours != nil {
			res.ModifiedCount++
		}
	}
	return res, nil
}

// mockUserRepo - мок UserRepository на функциях.
type mockUserRepo struct {
	CreateFunc        func(ctx context.Context, user *models.User) error
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	UpdateFunc        func(ctx context.Context, user *models.User) error
	DeleteFunc        func(ctx context.Context, id uuid.UUID) error
	ListFunc          func(ctx context.Context, limit, offset int) ([]models.User, error)
	CountFunc         func(ctx context.Context) (int, error)
	UpdatePasswordFn  func(ctx context.Context, id uuid.UUID, hash string) error
	UpdateRefreshFunc func(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	RotateRefreshFunc func(ctx context.Context, oldToken, newToken string, exp time.Time) (*models.User, error)
}

var _ repositories.UserRepository = (*mockUserRepo)(nil)

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	user.ID = uuid.New()
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrUserNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []models.User{}, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *mockUserRepo) Stats(context.Context) (*models.UserStats, error) {
	return &models.UserStats{ByRole: map[string]int{}}, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	if m.UpdatePasswordFn != nil {
		return m.UpdatePasswordFn(ctx, id, hash)
	}
	return nil
}

func (m *mockUserRepo) TouchLastLogin(context.Context, uuid.UUID, time.Time) error { return nil }

func (m *mockUserRepo) UpdateRefresh(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	if m.UpdateRefreshFunc != nil {
		return m.UpdateRefreshFunc(ctx, id, token, expiresAt)
	}
	return nil
}

func (m *mockUserRepo) RotateRefresh(ctx context.Context, oldToken, newToken string, exp time.Time) (*models.User, error) {
	if m.RotateRefreshFunc != nil {
		return m.RotateRefreshFunc(ctx, oldToken, newToken, exp)
	}
	return nil, models.ErrInvalidToken
}

func (m *mockUserRepo) ClearRefresh(context.Context, uuid.UUID) error { return nil }

// recordingPublisher собирает события.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TaskEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.TaskEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingNotifier struct {
	assigned []uuid.UUID
}

func (n *recordingNotifier) NotifyAssigned(_ *models.Task, assignee *models.User) {
	n.assigned = append(n.assigned, assignee.ID)
}
