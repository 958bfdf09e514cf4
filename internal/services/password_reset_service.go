package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tasktracker/internal/models"
	"tasktracker/internal/repositories"
	"tasktracker/internal/utils"
)

const resetTokenTTL = time.Hour

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	userRepo repositories.UserRepository
	repo     repositories.PasswordResetRepository
	emails   EmailService
	auth     AuthService
	now      func() time.Time
}

func NewPasswordResetService(userRepo repositories.UserRepository, repo repositories.PasswordResetRepository, emails EmailService, auth AuthService) PasswordResetService {
	return &passwordResetService{
		userRepo: userRepo,
		repo:     repo,
		emails:   emails,
		auth:     auth,
		now:      time.Now,
	}
}

// RequestReset never reveals whether the email is registered.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		verr := models.NewValidationError(validationFailed)
		verr.Add("email", "Please provide a valid email")
		return verr
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		log.Printf("[password-reset] request for %q: user not found", email)
		return nil
	}
	if err != nil {
		return err
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		return err
	}
	if _, err := s.repo.Create(ctx, user.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if s.emails != nil {
		if err := s.emails.SendPasswordResetEmail(user.Email, token); err != nil {
			log.Printf("[password-reset] failed to send email to %s: %v", user.Email, err)
		}
	}
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	verr := models.NewValidationError(validationFailed)
	if token == "" {
		verr.Add("token", "Reset token is required")
	}
	validatePassword(verr, "password", newPassword)
	if err := verr.OrNil(); err != nil {
		return err
	}

	pr, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if !pr.Usable(s.now()) {
		return models.ErrInvalidToken
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.MarkUsed(ctx, pr.ID); err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, pr.UserID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	log.Printf("[password-reset][ok] userID=%s", pr.UserID)
	return nil
}
