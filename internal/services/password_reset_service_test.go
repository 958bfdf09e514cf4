package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
)

type memResetRepo struct {
	byToken map[string]*models.PasswordReset
	nextID  int64
}

func newMemResetRepo() *memResetRepo {
	return &memResetRepo{byToken: map[string]*models.PasswordReset{}}
}

func (r *memResetRepo) Create(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	r.nextID++
	pr := &models.PasswordReset{ID: r.nextID, UserID: userID, Token: token, ExpiresAt: expiresAt}
	r.byToken[token] = pr
	return pr, nil
}

func (r *memResetRepo) GetByToken(_ context.Context, token string) (*models.PasswordReset, error) {
	pr, ok := r.byToken[token]
	if !ok {
		return nil, models.ErrInvalidToken
	}
	cp := *pr
	return &cp, nil
}

func (r *memResetRepo) MarkUsed(_ context.Context, id int64) error {
	for _, pr := range r.byToken {
		if pr.ID == id {
			if pr.UsedAt != nil {
				return models.ErrInvalidToken
			}
			now := time.Now()
			pr.UsedAt = &now
			return nil
		}
	}
	return models.ErrInvalidToken
}

type captureEmails struct {
	resetTo    string
	resetToken string
	assignedTo []string
}

func (c *captureEmails) SendWelcomeEmail(string, string) error { return nil }

func (c *captureEmails) SendPasswordResetEmail(email, token string) error {
	c.resetTo, c.resetToken = email, token
	return nil
}

func (c *captureEmails) SendTaskAssignedEmail(email, _, _ string, _ *time.Time) error {
	c.assignedTo = append(c.assignedTo, email)
	return errors.New("smtp down")
}

func TestPasswordResetService_Flow(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "bob@example.com"}
	var newHash string
	users := &mockUserRepo{
		GetByEmailFunc: func(_ context.Context, email string) (*models.User, error) {
			if email == user.Email {
				return user, nil
			}
			return nil, models.ErrUserNotFound
		},
		UpdatePasswordFn: func(_ context.Context, id uuid.UUID, hash string) error {
			require.Equal(t, user.ID, id)
			newHash = hash
			return nil
		},
	}
	resets := newMemResetRepo()
	emails := &captureEmails{}
	auth := NewAuthService(users, nil, testJWT)
	svc := NewPasswordResetService(users, resets, emails, auth)
	ctx := context.Background()

	require.NoError(t, svc.RequestReset(ctx, "nobody@example.com"))
	assert.Empty(t, emails.resetToken, "unknown email must not send anything")

	require.NoError(t, svc.RequestReset(ctx, " BOB@example.com "))
	require.NotEmpty(t, emails.resetToken)
	assert.Equal(t, user.Email, emails.resetTo)

	var verr *models.ValidationError
	require.ErrorAs(t, svc.ResetPassword(ctx, emails.resetToken, "weak"), &verr)

	require.NoError(t, svc.ResetPassword(ctx, emails.resetToken, "Better123"))
	assert.NotEmpty(t, newHash)
	assert.NotEqual(t, "Better123", newHash)

	assert.ErrorIs(t, svc.ResetPassword(ctx, emails.resetToken, "Another123"), models.ErrInvalidToken)
}

func TestPasswordResetService_ExpiredToken(t *testing.T) {
	user := uuid.New()
	resets := newMemResetRepo()
	_, err := resets.Create(context.Background(), user, "old", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	svc := NewPasswordResetService(&mockUserRepo{}, resets, nil, NewAuthService(&mockUserRepo{}, nil, testJWT))
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "old", "Better123"), models.ErrInvalidToken)
}

func TestAssignmentNotifier(t *testing.T) {
	emails := &captureEmails{}
	n := NewAssignmentNotifier(emails, nil)
	task := &models.Task{ID: uuid.New(), Title: "<b>x</b>", Priority: models.PriorityHigh}

	// ошибки доставки только логируются
	n.NotifyAssigned(task, &models.User{ID: uuid.New(), Email: "a@example.com", TelegramChatID: 42})
	n.NotifyAssigned(task, nil)
	assert.Equal(t, []string{"a@example.com"}, emails.assignedTo)

	msg := formatAssignedTask(task)
	assert.Contains(t, msg, "&lt;b&gt;x&lt;/b&gt;")
	assert.Contains(t, msg, "<code>high</code>")
	assert.Contains(t, msg, "<code>not set</code>")
}
