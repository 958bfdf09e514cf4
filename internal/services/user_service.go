package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"tasktracker/internal/authz"
	"tasktracker/internal/models"
	"tasktracker/internal/repositories"
)

type UpdateUserInput struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,max=50"`
	Role      *string `json:"role" binding:"omitempty,oneof=user manager admin"`
	IsActive  *bool   `json:"isActive"`
}

type UserPage struct {
	Users      []models.User     `json:"users"`
	Pagination models.Pagination `json:"pagination"`
}

type UserService interface {
	ListUsers(ctx context.Context, page, limit int) (*UserPage, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, actor models.Identity, id string) error
	Stats(ctx context.Context) (*models.UserStats, error)
}

type userService struct {
	repo     repositories.UserRepository
	maxLimit int
}

func NewUserService(repo repositories.UserRepository, maxLimit int) UserService {
	if maxLimit < 1 {
		maxLimit = fallbackMaxRows
	}
	return &userService{repo: repo, maxLimit: maxLimit}
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, models.ErrUserNotFound
	}
	return id, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = fallbackLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	users, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	return &UserPage{
		Users:      users,
		Pagination: models.NewPagination(page, limit, len(users), total),
	}, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	uid, err := parseUserID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, uid)
}

func (s *userService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	uid, err := parseUserID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	verr := models.NewValidationError(validationFailed)
	if in.FirstName != nil {
		if user.FirstName = strings.TrimSpace(*in.FirstName); user.FirstName == "" {
			verr.Add("firstName", "First name cannot be empty")
		}
	}
	if in.LastName != nil {
		if user.LastName = strings.TrimSpace(*in.LastName); user.LastName == "" {
			verr.Add("lastName", "Last name cannot be empty")
		}
	}
	if in.Role != nil {
		if !authz.IsValidRole(*in.Role) {
			verr.Add("role", "Role must be user, manager, or admin")
		}
		user.Role = *in.Role
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[user][update][ok] id=%s role=%s active=%v", user.ID, user.Role, user.IsActive)
	return user, nil
}

// DeleteUser refuses to remove the caller's own account.
func (s *userService) DeleteUser(ctx context.Context, actor models.Identity, id string) error {
	uid, err := parseUserID(id)
	if err != nil {
		return err
	}
	if uid == actor.ID {
		verr := models.NewValidationError("Cannot delete your own account")
		return verr
	}
	if err := s.repo.Delete(ctx, uid); err != nil {
		return err
	}
	log.Printf("[user][delete][ok] id=%s by=%s", uid, actor.ID)
	return nil
}

func (s *userService) Stats(ctx context.Context) (*models.UserStats, error) {
	return s.repo.Stats(ctx)
}
