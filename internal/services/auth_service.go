package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tasktracker/internal/authz"
	"tasktracker/internal/config"
	"tasktracker/internal/models"
	"tasktracker/internal/repositories"
	"tasktracker/internal/utils"
)

const (
	passwordMinLen   = 6
	refreshTokenSize = 32
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// Claims of the access token.
type Claims struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() models.Identity {
	return models.Identity{ID: c.ID, Username: c.Username, Role: c.Role}
}

type RegisterInput struct {
	Username  string `json:"username" binding:"required,min=3,max=20"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ProfileInput struct {
	FirstName      *string `json:"firstName" binding:"omitempty,max=50"`
	LastName       *string `json:"lastName" binding:"omitempty,max=50"`
	TelegramChatID *int64  `json:"telegramChatId"`
}

type AuthResult struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.User, error)

	HashPassword(password string) (string, error)
	ParseAccessToken(token string) (*Claims, error)
}

type authService struct {
	users      repositories.UserRepository
	emails     EmailService
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(users repositories.UserRepository, emails EmailService, cfg config.JWTConfig) AuthService {
	return &authService{
		users:      users,
		emails:     emails,
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

func (s *authService) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	verr := models.NewValidationError(validationFailed)

	username := strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(username) {
		verr.Add("username", "Username must be 3-20 characters of letters, numbers, and underscores")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		verr.Add("email", "Please provide a valid email")
	}
	validatePassword(verr, "password", in.Password)
	firstName, lastName := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if firstName == "" {
		verr.Add("firstName", "First name is required")
	}
	if lastName == "" {
		verr.Add("lastName", "Last name is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         authz.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[auth][register][ok] userID=%s username=%q", user.ID, user.Username)

	if s.emails != nil {
		if err := s.emails.SendWelcomeEmail(user.Email, user.FullName()); err != nil {
			log.Printf("[auth][register] welcome email to %s failed: %v", user.Email, err)
		}
	}
	return s.issue(ctx, user)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		log.Printf("[auth][login] unknown email=%q", email)
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		log.Printf("[auth][login] bcrypt mismatch for userID=%s", user.ID)
		return nil, models.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, models.ErrAccountDisabled
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("[auth][login] touch last_login for userID=%s failed: %v", user.ID, err)
	} else {
		user.LastLogin = &now
	}
	log.Printf("[auth][login][ok] userID=%s role=%s", user.ID, user.Role)
	return s.issue(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	old := strings.TrimSpace(refreshToken)
	if old == "" {
		return nil, models.ErrInvalidToken
	}
	next, err := utils.RandomToken(refreshTokenSize)
	if err != nil {
		return nil, err
	}
	user, err := s.users.RotateRefresh(ctx, old, next, s.now().Add(s.refreshTTL))
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrAccountDisabled
	}
	token, err := s.signAccess(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, RefreshToken: next}, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearRefresh(ctx, userID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
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
	if in.TelegramChatID != nil {
		user.TelegramChatID = *in.TelegramChatID
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// только HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithLeeway(2*time.Minute))
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}
	if claims.ID == uuid.Nil {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

// issue signs a fresh access token and stores a new opaque refresh token.
func (s *authService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := s.signAccess(user)
	if err != nil {
		return nil, err
	}
	rt, err := utils.RandomToken(refreshTokenSize)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefresh(ctx, user.ID, rt, s.now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &AuthResult{User: user, Token: token, RefreshToken: rt}, nil
}

func (s *authService) signAccess(user *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// validatePassword requires upper, lower and digit characters.
func validatePassword(verr *models.ValidationError, field, pw string) {
	if len(pw) < passwordMinLen {
		verr.Add(field, fmt.Sprintf("Password must be at least %d characters", passwordMinLen))
		return
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		verr.Add(field, "Password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
}
