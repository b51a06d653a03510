package routes

import (
	"net/http"
	"slices"
	"time"

	"project-board-api/internal/cache"
	"project-board-api/internal/handlers"
	"project-board-api/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Options configures the middleware around the API handlers.
type Options struct {
	Logger      *log.Logger
	Tokens      middleware.TokenValidator
	CORSOrigins []string

	// Visitors holds per-IP limiters; nil disables rate limiting.
	Visitors  cache.Cache[string, *rate.Limiter]
	RateLimit rate.Limit
	RateBurst int
	IdleTTL   time.Duration
}

func SetupRoutes(h *handlers.Handler, opts Options) *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.New()
	ginRouter.Use(middleware.RecoveryWithLog(opts.Logger), middleware.RequestLogger(opts.Logger))
	ginRouter.Use(cors.New(corsConfig(opts.CORSOrigins)))

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Project Board API is running",
		})
	})

	// Realtime relay; browsers pass the token as ?token=
	ginRouter.GET("/ws", middleware.JWTAuthMiddleware(opts.Tokens), h.WebSocketHandler)

	api := ginRouter.Group("/api")
	if opts.Visitors != nil {
		api.Use(middleware.RateLimiter(opts.Visitors, opts.RateLimit, opts.RateBurst, opts.IdleTTL))
	}

	// Public routes (no authentication required)
	{
		api.POST("/login", h.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware(opts.Tokens))
	{
		// Project endpoints
		protectedRoutes.GET("/projects", h.GetProjects)
		protectedRoutes.GET("/projects/:id", h.GetProject)
		protectedRoutes.GET("/projects/:id/stats", h.GetProjectStats)
		protectedRoutes.POST("/projects", h.CreateProject)
		protectedRoutes.PUT("/projects/:id", h.UpdateProject)
		protectedRoutes.DELETE("/projects/:id", h.DeleteProject)
		// Task endpoints
		protectedRoutes.GET("/tasks/project/:projectId", h.GetProjectTasks)
		protectedRoutes.GET("/tasks/:id", h.GetTaskByID)
		protectedRoutes.POST("/tasks", h.CreateTask)
		protectedRoutes.PUT("/tasks/:id", h.UpdateTask)
		protectedRoutes.PATCH("/tasks/:id/status", h.UpdateTaskStatus)
		protectedRoutes.DELETE("/tasks/:id", h.DeleteTask)
		// Comment endpoints
		protectedRoutes.GET("/comments/task/:taskId", h.GetTaskComments)
		protectedRoutes.POST("/comments", h.CreateComment)
		protectedRoutes.DELETE("/comments/:id", h.DeleteComment)
		// Notification endpoints
		protectedRoutes.GET("/notifications", h.GetNotifications)
		protectedRoutes.GET("/notifications/unread-count", h.GetUnreadCount)
		protectedRoutes.PUT("/notifications/:id/read", h.MarkNotificationRead)
		protectedRoutes.DELETE("/notifications/:id", h.DeleteNotification)
		// Users endpoint
		protectedRoutes.GET("/users", h.GetAllUsers)
	}

	return ginRouter
}

// corsConfig allows any origin for "*" and otherwise the listed origins
// with credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
