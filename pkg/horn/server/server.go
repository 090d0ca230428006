package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn"
)

// Server holds the state for the REST API server.
type Server struct {
	kb     *horn.Horn
	log    *zap.Logger
	router *gin.Engine
}

// NewServer creates a new Server over a knowledge base.
func NewServer(kb *horn.Horn, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	s := &Server{
		kb:     kb,
		log:    log,
		router: r,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.healthCheck)
	s.router.GET("/v1/predicates", s.handlePredicates)
	s.router.POST("/v1/statements", s.handleStatements)
	s.router.POST("/v1/ask", s.handleAsk)
	s.router.GET("/v1/runs", s.handleRuns)
	s.router.GET("/v1/runs/:id", s.handleRun)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
