package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/authz"
	"tasktracker/internal/models"
)

func TestUserService_ListUsers_ClampsLimit(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockUserRepo{
		ListFunc: func(_ context.Context, limit, offset int) ([]models.User, error) {
			gotLimit, gotOffset = limit, offset
			return []models.User{{ID: uuid.New()}}, nil
		},
		CountFunc: func(context.Context) (int, error) { return 120, nil },
	}
	svc := NewUserService(repo, 50)

	page, err := svc.ListUsers(context.Background(), 3, 500)
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 100, gotOffset)
	assert.Equal(t, 3, page.Pagination.Current)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 120, page.Pagination.TotalCount)

	_, err = svc.ListUsers(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, fallbackLimit, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

func TestUserService_GetUser_MalformedID(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, 100)
	_, err := svc.GetUser(context.Background(), "42")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestUserService_UpdateUser(t *testing.T) {
	id := uuid.New()
	var saved *models.User
	repo := &mockUserRepo{
		GetByIDFunc: func(context.Context, uuid.UUID) (*models.User, error) {
			return &models.User{ID: id, FirstName: "Ann", LastName: "Lee", Role: authz.RoleUser, IsActive: true}, nil
		},
		UpdateFunc: func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		},
	}
	svc := NewUserService(repo, 100)

	role, inactive := authz.RoleManager, false
	u, err := svc.UpdateUser(context.Background(), id.String(), UpdateUserInput{Role: &role, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleManager, u.Role)
	assert.False(t, u.IsActive)
	assert.Same(t, u, saved)

	saved = nil
	bad, blank := "owner", "  "
	_, err = svc.UpdateUser(context.Background(), id.String(), UpdateUserInput{Role: &bad, FirstName: &blank})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
	assert.Nil(t, saved)
}

func TestUserService_DeleteUser(t *testing.T) {
	var deleted []uuid.UUID
	repo := &mockUserRepo{
		DeleteFunc: func(_ context.Context, id uuid.UUID) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	svc := NewUserService(repo, 100)
	admin := models.Identity{ID: uuid.New(), Role: authz.RoleAdmin}

	var verr *models.ValidationError
	require.ErrorAs(t, svc.DeleteUser(context.Background(), admin, admin.ID.String()), &verr)
	assert.Empty(t, deleted)

	other := uuid.New()
	require.NoError(t, svc.DeleteUser(context.Background(), admin, other.String()))
	assert.Equal(t, []uuid.UUID{other}, deleted)
}
