package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/authz"
	"tasktracker/internal/models"
	"tasktracker/internal/ratelimit"
	"tasktracker/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTokens map[string]uuid.UUID

func (f fakeTokens) ParseAccessToken(token string) (*services.Claims, error) {
	id, ok := f[token]
	if !ok {
		return nil, models.ErrInvalidToken
	}
	return &services.Claims{ID: id}, nil
}

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return u, nil
}

func newAuthRouter(tokens fakeTokens, users fakeUsers, roles ...string) *gin.Engine {
	r := gin.New()
	g := r.Group("/", AuthMiddleware(tokens, users))
	if len(roles) > 0 {
		g.Use(RequireRoles(roles...))
	}
	g.GET("/me", func(c *gin.Context) {
		who, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": who.ID, "username": who.Username, "role": who.Role})
	})
	return r
}

func doGet(r http.Handler, auth string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthMiddleware(t *testing.T) {
	active := &models.User{ID: uuid.New(), Username: "jane", Role: authz.RoleManager, IsActive: true}
	inactive := &models.User{ID: uuid.New(), Username: "gone", Role: authz.RoleUser}
	tokens := fakeTokens{"good": active.ID, "disabled": inactive.ID, "orphan": uuid.New()}
	users := fakeUsers{active.ID: active, inactive.ID: inactive}
	r := newAuthRouter(tokens, users)

	cases := []struct {
		name, header string
		status       int
		message      string
	}{
		{"missing", "", http.StatusUnauthorized, "Access token is required"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Access token is required"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"unknown user", "Bearer orphan", http.StatusUnauthorized, "Invalid token"},
		{"deactivated", "Bearer disabled", http.StatusUnauthorized, "Account has been deactivated"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := doGet(r, tc.header)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
		})
	}

	w, body := doGet(r, "bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, active.ID.String(), body["id"])
	assert.Equal(t, "jane", body["username"])
	assert.Equal(t, "manager", body["role"])
}

func TestRequireRoles(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: authz.RoleUser, IsActive: true}
	admin := &models.User{ID: uuid.New(), Role: authz.RoleAdmin, IsActive: true}
	r := newAuthRouter(
		fakeTokens{"u": user.ID, "a": admin.ID},
		fakeUsers{user.ID: user, admin.ID: admin},
		authz.RoleAdmin, authz.RoleManager,
	)

	w, body := doGet(r, "Bearer u")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Insufficient permissions", body["message"])

	w, _ = doGet(r, "Bearer a")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoles_NoIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireRoles(authz.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w, body := doGet(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication required", body["message"])
}

type fakeLimiter struct {
	res *ratelimit.Result
	err error
}

func (f fakeLimiter) Allow(context.Context, string) (*ratelimit.Result, error) { return f.res, f.err }

func TestRateLimit(t *testing.T) {
	newRouter := func(l ratelimit.Limiter) *gin.Engine {
		r := gin.New()
		r.GET("/me", RateLimit(l), func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	w, body := doGet(newRouter(fakeLimiter{res: &ratelimit.Result{
		Allowed:    false,
		Limit:      100,
		RetryAfter: 1500 * time.Millisecond,
		ResetAt:    time.Now().Add(2 * time.Second),
	}}), "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, false, body["success"])

	w, _ = doGet(newRouter(fakeLimiter{res: &ratelimit.Result{Allowed: true, Limit: 100, Remaining: 99}}), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "99", w.Header().Get("X-RateLimit-Remaining"))

	// ошибка лимитера не блокирует запрос
	w, _ = doGet(newRouter(fakeLimiter{err: errors.New("redis down")}), "")
	assert.Equal(t, http.StatusOK, w.Code)
}
