package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/internal/handlers"
	"github.com/taskdeck/taskdeck/internal/middleware"
	"github.com/taskdeck/taskdeck/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.AuthMiddleware(), middleware.RequireAdmin(), handlers.TaskFeed)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		employees := api.Group("/employees", middleware.AuthMiddleware(), middleware.RequireAdmin())
		{
			employees.GET("", handlers.ListEmployees)
			employees.PATCH("/:id", handlers.UpdateEmployee)
			employees.PATCH("/:id/deactivate", handlers.DeactivateEmployee)
			employees.PATCH("/:id/activate", handlers.ActivateEmployee)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			// Admin only
			tasks.POST("", middleware.RequireAdmin(), handlers.CreateTask)
			tasks.PUT("/:id", middleware.RequireAdmin(), handlers.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireAdmin(), handlers.DeleteTask)

			// Any authenticated user; per-task rules live in the policy
			tasks.GET("", handlers.GetAllTasks)
			tasks.GET("/my-tasks", handlers.GetMyTasks)
			tasks.GET("/:id", handlers.GetTask)
			tasks.PATCH("/:id/status", handlers.UpdateTaskStatus)

			// Comments
			tasks.POST("/:id/comments", handlers.AddComment)
			tasks.GET("/:id/comments", handlers.GetComments)
			tasks.DELETE("/:id/comments/:commentId", handlers.DeleteComment)
		}
	}

	return r
}
