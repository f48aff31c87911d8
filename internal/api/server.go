package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/taskchat/internal/agent"
	"github.com/taskchat/internal/api/auth"
	"github.com/taskchat/internal/config"
	"github.com/taskchat/internal/conversation"
	"github.com/taskchat/internal/jobqueue"
	"github.com/taskchat/internal/tasks"
)

// Server represents the API server
type Server struct {
	echo *echo.Echo
	port int

	db           *sql.DB
	cfg          *config.Config
	tokenService *auth.TokenService
	authHandler  *auth.Handler

	taskStore tasks.Store
	convStore conversation.Store

	// agent is nil when no AI provider is configured; chat then
	// responds 503.
	agent    *agent.Agent
	jobQueue *jobqueue.JobQueue
}

// Options carries the dependencies for a new server.
type Options struct {
	DB        *sql.DB
	Config    *config.Config
	TaskStore tasks.Store
	ConvStore conversation.Store
	Agent     *agent.Agent
	JobQueue  *jobqueue.JobQueue
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	tokenService := auth.NewTokenService(opts.DB, opts.Config.Auth.JWTSecret)
	tokenService.AccessTokenDuration = time.Duration(opts.Config.Auth.AccessTokenMinutes) * time.Minute
	tokenService.RefreshTokenDuration = time.Duration(opts.Config.Auth.RefreshTokenDays) * 24 * time.Hour
	tokenService.StartCleanupScheduler()

	server := &Server{
		echo:         e,
		port:         opts.Config.Server.Port,
		db:           opts.DB,
		cfg:          opts.Config,
		tokenService: tokenService,
		authHandler:  auth.NewHandler(opts.DB, tokenService),
		taskStore:    opts.TaskStore,
		convStore:    opts.ConvStore,
		agent:        opts.Agent,
		jobQueue:     opts.JobQueue,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		if err := s.db.Ping(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	api := s.echo.Group("/api")

	// Authentication endpoints
	api.POST("/auth/register", s.authHandler.Register)
	api.POST("/auth/login", s.authHandler.Login)
	api.POST("/auth/logout", s.authHandler.Logout)
	api.POST("/auth/refresh", s.authHandler.Refresh)

	// Per-user endpoints. Every route under here requires a valid token
	// whose user matches the :user_id in the path.
	user := api.Group("/:user_id", auth.RequireAuth(s.tokenService), auth.RequireSelf())

	user.GET("/tasks", s.listTasks)
	user.POST("/tasks", s.createTask)
	user.GET("/tasks/:task_id", s.getTask)
	user.PUT("/tasks/:task_id", s.updateTask)
	user.DELETE("/tasks/:task_id", s.deleteTask)
	user.PATCH("/tasks/:task_id/complete", s.updateTaskCompletion)

	// Chat gets its own rate limit; each message may fan out into
	// several model calls.
	chatLimiter := middleware.NewRateLimiterMemoryStore(rate.Limit(1))
	user.POST("/chat", s.chat, middleware.RateLimiter(chatLimiter))

	user.GET("/conversations", s.listConversations)
	user.GET("/conversations/:conversation_id/messages", s.getConversationMessages)
}

// Start begins the API server and blocks until interrupted.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.jobQueue != nil {
		if err := s.jobQueue.Stop(ctx); err != nil {
			s.echo.Logger.Warnf("job queue shutdown: %v", err)
		}
	}

	return s.echo.Shutdown(ctx)
}
