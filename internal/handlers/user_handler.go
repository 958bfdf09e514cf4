package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary      Список пользователей
// @Tags         Users
// @Produce      json
// @Param        page   query  int  false  "Page (default 1)"
// @Param        limit  query  int  false  "Page size (default 10)"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	res, err := h.service.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, "user][list", err)
		return
	}
	respondOK(c, http.StatusOK, res, "")
}

// @Summary      Статистика пользователей
// @Tags         Users
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/users/stats [get]
func (h *UserHandler) Stats(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, "user][stats", err)
		return
	}
	respondOK(c, http.StatusOK, st, "")
}

// @Summary      Пользователь по ID
// @Tags         Users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "user][get", err)
		return
	}
	respondOK(c, http.StatusOK, user, "")
}

// @Summary      Изменение пользователя
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "User ID"
// @Param        body  body      services.UpdateUserInput  true  "Поля"
// @Success      200   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var in services.UpdateUserInput
	if !bindJSON(c, "user][update", &in) {
		return
	}
	user, err := h.service.UpdateUser(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, "user][update", err)
		return
	}
	respondOK(c, http.StatusOK, user, "User updated successfully")
}

// @Summary      Удаление пользователя
// @Tags         Users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), who, c.Param("id")); err != nil {
		respondError(c, "user][delete", err)
		return
	}
	respondOK(c, http.StatusOK, nil, "User deleted successfully")
}
