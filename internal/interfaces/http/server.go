// Package http is the HTTP adapter over the workflow engine. It maps
// JSON requests to engine operations and engine errors to status codes;
// no business rules live here.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0xfishbone/approval-flow/internal/models"
	"github.com/0xfishbone/approval-flow/internal/workflow"
)

// WorkflowService is the slice of the workflow engine the handlers use.
type WorkflowService interface {
	CreateWorkflow(ctx context.Context, requestID, companyID string, creatorRole models.Role) (*models.Workflow, error)
	GetWorkflowByRequestID(ctx context.Context, requestID string) (*models.Workflow, error)
	ApproveStep(ctx context.Context, workflowID, approverID, signature string, data models.ApprovalData, location string) (*models.Approval, error)
	RejectStep(ctx context.Context, workflowID, approverID, signature, reason, location string) (*models.Approval, error)
	CurrentApprover(ctx context.Context, workflowID string) (*workflow.StepRef, error)
	IsComplete(ctx context.Context, workflowID string) (bool, error)
	ApprovalHistory(ctx context.Context, requestID string) ([]*models.ApprovalWithApprover, error)
	Config(companyID string) *models.WorkflowConfig
}

// UserDirectory resolves acting users for permission checks and lists
// company members.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByCompany(ctx context.Context, companyID string) ([]*models.User, error)
}

// RequestStore is the request glue used by the create endpoint.
type RequestStore interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter.
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates the HTTP server with routes and middleware set up.
func NewServer(config ServerConfig, handlers *Handlers, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/requests", s.handlers.CreateRequest)
		api.GET("/requests/:id/workflow", s.handlers.GetWorkflow)
		api.GET("/requests/:id/history", s.handlers.GetApprovalHistory)

		api.GET("/workflows/:id", s.handlers.GetWorkflowState)
		api.GET("/workflows/:id/current-approver", s.handlers.GetCurrentApprover)
		api.POST("/workflows/:id/approve", s.handlers.ApproveStep)
		api.POST("/workflows/:id/reject", s.handlers.RejectStep)

		api.GET("/config", s.handlers.GetWorkflowConfig)
		api.GET("/users", s.handlers.ListUsers)
	}
}

// Start begins serving. Blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("http server starting", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the underlying router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
