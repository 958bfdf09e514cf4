package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tasktracker/internal/authz"
	"tasktracker/internal/handlers"
	"tasktracker/internal/middleware"
)

// SetupRoutes mounts the API. rateLimit may be nil.
func SetupRoutes(
	r *gin.Engine,
	auth gin.HandlerFunc,
	rateLimit gin.HandlerFunc,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {

	// ---- public
	r.GET("/health", healthHandler.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	if rateLimit != nil {
		api.Use(rateLimit)
	}

	// AUTH
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)

		authGroup.POST("/logout", auth, authHandler.Logout)
		authGroup.GET("/profile", auth, authHandler.Profile)
		authGroup.PUT("/profile", auth, authHandler.UpdateProfile)
	}

	// ---- protected
	protected := api.Group("/", auth)

	// USERS
	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRoles(authz.RoleAdmin, authz.RoleManager), userHandler.ListUsers)
		users.GET("/stats", middleware.RequireRoles(authz.RoleAdmin), userHandler.Stats)
		users.GET("/:id", middleware.RequireRoles(authz.RoleAdmin, authz.RoleManager), userHandler.GetUser)
		users.PUT("/:id", middleware.RequireRoles(authz.RoleAdmin), userHandler.UpdateUser)
		users.DELETE("/:id", middleware.RequireRoles(authz.RoleAdmin), userHandler.DeleteUser)
	}

	// TASKS
	tasks := protected.Group("/tasks")
	{
		tasks.GET("", taskHandler.List)
		tasks.GET("/stats", taskHandler.Stats)
		tasks.GET("/export", taskHandler.Export)
		tasks.PATCH("/bulk", middleware.RequireRoles(authz.RoleAdmin, authz.RoleManager), taskHandler.BulkUpdate)
		tasks.GET("/:id", taskHandler.Get)
		tasks.POST("", taskHandler.Create)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	return r
}
