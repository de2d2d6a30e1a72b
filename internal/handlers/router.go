package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-task-api/internal/config"
	"github.com/yukikurage/project-task-api/internal/constants"
	"github.com/yukikurage/project-task-api/internal/metrics"
	"github.com/yukikurage/project-task-api/internal/middleware"
	"github.com/yukikurage/project-task-api/internal/repository"
	"github.com/yukikurage/project-task-api/internal/services"
)

// RouterDeps carries everything the HTTP layer is built from
type RouterDeps struct {
	Config       *config.Config
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Store        repository.Store
	Tokens       *services.TokenService
	Revocations  services.RevocationList
	SessionStore sessions.Store
}

// NewRouter wires services, middleware and routes into a gin engine
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config

	authService := services.NewAuthService(deps.Store.Users())
	projectService := services.NewProjectService(deps.Store.Projects(), deps.Store.Tasks())
	taskService := services.NewTaskService(deps.Store.Tasks(), deps.Store.Projects(), deps.Store.Users())
	cascadeService := services.NewCascadeService(deps.Store, deps.Revocations, deps.Metrics, deps.Logger)

	authHandler := NewAuthHandler(authService, deps.Tokens, cascadeService, cfg.CookieSecure)
	projectHandler := NewProjectHandler(projectService, cascadeService)
	taskHandler := NewTaskHandler(taskService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(deps.Metrics.Middleware())
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))
	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Project Task API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Revocations,
		middleware.BearerExtractor{},
		middleware.SessionExtractor{},
	)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/profile", requireAuth, authHandler.Profile)
			auth.DELETE("/delete", requireAuth, authHandler.DeleteAccount)
		}

		projects := api.Group("/project")
		projects.Use(requireAuth)
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", middleware.RequireIDParams("id"), projectHandler.GetProject)
			projects.PUT("/:id", middleware.RequireIDParams("id"), projectHandler.UpdateProject)
			projects.DELETE("/:id", middleware.RequireIDParams("id"), projectHandler.DeleteProject)
		}

		tasks := api.Group("/task")
		tasks.Use(requireAuth)
		{
			tasks.POST("/:projectId", middleware.RequireIDParams("projectId"), taskHandler.CreateTask)
			tasks.GET("/:projectId", middleware.RequireIDParams("projectId"), taskHandler.ListTasks)
			tasks.PUT("/:id", middleware.RequireIDParams("id"), taskHandler.UpdateTask)
			tasks.PUT("/:id/toggle", middleware.RequireIDParams("id"), taskHandler.ToggleTask)
			tasks.DELETE("/:id", middleware.RequireIDParams("id"), taskHandler.DeleteTask)
		}
	}

	return r
}
