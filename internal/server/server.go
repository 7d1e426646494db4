package server

import (
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/catalog"
	"github.com/kode4food/bizunit/internal/events"
	"github.com/kode4food/bizunit/internal/plan"
)

type (
	// Server implements the HTTP API server for plan execution
	Server struct {
		Dependencies
		sockets map[*Client]struct{}
		mu      sync.Mutex
	}

	// Dependencies are the collaborators the server routes requests to
	Dependencies struct {
		Catalog  *catalog.Catalog
		Manager  *plan.Manager
		Registry *block.Registry
		Hub      *events.Hub
		Logger   *slog.Logger
	}
)

// NewServer creates a new HTTP API server
func NewServer(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{
		Dependencies: deps,
		sockets:      map[*Client]struct{}{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(*gin.Context, *slog.Logger) *slog.Logger {
			return s.Logger
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PUT, PATCH, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)
	router.GET("/blocks", s.listBlocks)

	// Plan documents
	plans := router.Group("/plan")
	{
		plans.GET("", s.listPlans)
		plans.POST("/normalize", s.normalizePlan)
		plans.GET("/:plan", s.getPlan)
		plans.PUT("/:plan", s.putPlan)
		plans.DELETE("/:plan", s.deletePlan)
	}

	// Plan execution
	router.Any("/run/:plan", s.runPlan)
	router.Any("/run/:plan/*path", s.runPlan)

	router.GET("/ws", s.handleWebSocket)

	return router
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets[c] = struct{}{}
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, c)
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
