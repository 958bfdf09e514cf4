package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/models"
	"tasktracker/internal/services"
)

type AuthHandler struct {
	authService  services.AuthService
	resetService services.PasswordResetService
}

func NewAuthHandler(authService services.AuthService, resetService services.PasswordResetService) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService}
}

// @Summary      Регистрация
// @Description  Создаёт пользователя с ролью user и возвращает токены
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      services.RegisterInput  true  "Данные пользователя"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      409   {object}  map[string]interface{}
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, "auth][register", &in) {
		return
	}
	res, err := h.authService.Register(c.Request.Context(), in)
	if errors.Is(err, models.ErrConflict) {
		respondFail(c, http.StatusConflict, "User with this email or username already exists", nil)
		return
	}
	if err != nil {
		respondError(c, "auth][register", err)
		return
	}
	respondOK(c, http.StatusCreated, res, "User registered successfully")
}

// @Summary      Вход в систему
// @Description  Аутентифицирует пользователя и возвращает токены доступа
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      services.LoginInput  true  "Данные для входа"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]interface{}
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var in services.LoginInput
	if !bindJSON(c, "auth][login", &in) {
		return
	}
	res, err := h.authService.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, "auth][login", err)
		return
	}
	respondOK(c, http.StatusOK, res, "Login successful")
}

// @Summary      Обновление токена
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "{refreshToken}"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]interface{}
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if !bindJSON(c, "auth][refresh", &req) {
		return
	}
	res, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, "auth][refresh", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"token": res.Token, "refreshToken": res.RefreshToken}, "")
}

// @Summary      Выход
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), who.ID); err != nil {
		respondError(c, "auth][logout", err)
		return
	}
	log.Printf("[auth][logout][ok] userID=%s", who.ID)
	respondOK(c, http.StatusOK, nil, "Logged out successfully")
}

// @Summary      Профиль
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	user, err := h.authService.Profile(c.Request.Context(), who.ID)
	if err != nil {
		respondError(c, "auth][profile", err)
		return
	}
	respondOK(c, http.StatusOK, user, "")
}

// @Summary      Изменение профиля
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      services.ProfileInput  true  "Поля профиля"
// @Success      200   {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	var in services.ProfileInput
	if !bindJSON(c, "auth][profile", &in) {
		return
	}
	user, err := h.authService.UpdateProfile(c.Request.Context(), who.ID, in)
	if err != nil {
		respondError(c, "auth][profile", err)
		return
	}
	respondOK(c, http.StatusOK, user, "Profile updated successfully")
}

// @Summary      Запрос сброса пароля
// @Description  Всегда 200, чтобы не раскрывать наличие email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "{email}"
// @Success      200   {object}  map[string]interface{}
// @Router       /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if !bindJSON(c, "auth][forgot", &req) {
		return
	}
	if err := h.resetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, "auth][forgot", err)
		return
	}
	respondOK(c, http.StatusOK, nil, "If the email is registered, a reset link has been sent")
}

// @Summary      Сброс пароля
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "{token, password}"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if !bindJSON(c, "auth][reset", &req) {
		return
	}
	err := h.resetService.ResetPassword(c.Request.Context(), req.Token, req.Password)
	if errors.Is(err, models.ErrInvalidToken) {
		respondFail(c, http.StatusBadRequest, "Invalid or expired reset token", nil)
		return
	}
	if err != nil {
		respondError(c, "auth][reset", err)
		return
	}
	respondOK(c, http.StatusOK, nil, "Password has been reset successfully")
}
