package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tasktracker/internal/models"
	"tasktracker/internal/services"
)

// Ключи gin-контекста с identity текущего пользователя.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

type TokenParser interface {
	ParseAccessToken(token string) (*services.Claims, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// AuthMiddleware validates the bearer token and loads the user behind it,
// so deactivated accounts and role changes take effect immediately.
func AuthMiddleware(tokens TokenParser, users UserGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, "Access token is required")
			return
		}

		claims, err := tokens.ParseAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.ID)
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		case err != nil:
			log.Printf("[auth][mw][err] load user %s: %v", claims.ID, err)
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !user.IsActive {
			abort(c, http.StatusUnauthorized, "Account has been deactivated")
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUsername, user.Username)
		c.Set(CtxRole, user.Role)
		c.Next()
	}
}

// IdentityFrom reads what AuthMiddleware stored in the context.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return models.Identity{}, false
	}
	return models.Identity{
		ID:       id,
		Username: c.GetString(CtxUsername),
		Role:     c.GetString(CtxRole),
	}, true
}
