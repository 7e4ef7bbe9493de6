package api

import (
	"html/template"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bakerychat/internal/catalog"
	"bakerychat/internal/chat"
	"bakerychat/internal/logging"
	"bakerychat/internal/monitoring"
	"bakerychat/internal/orders"
	"bakerychat/internal/session"
)

// Server serves the bakery pages, the JSON API and the live chat socket
type Server struct {
	router       *gin.Engine
	orchestrator *chat.Orchestrator
	sessions     *session.Manager
	catalog      *catalog.Catalog
	ledger       *orders.Ledger
	metrics      *monitoring.MetricsCollector
	logger       logrus.FieldLogger
	upgrader     websocket.Upgrader
}

// Options configures the HTTP surface
type Options struct {
	AllowedOrigins []string
	Logger         logrus.FieldLogger
}

// NewServer wires the handlers onto a fresh gin engine
func NewServer(orchestrator *chat.Orchestrator, sessions *session.Manager, cat *catalog.Catalog, ledger *orders.Ledger, metrics *monitoring.MetricsCollector, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if metrics == nil {
		metrics = monitoring.NewMetricsCollector(nil)
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware(logger))
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
		}))
	}
	router.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")))

	s := &Server{
		router:       router,
		orchestrator: orchestrator,
		sessions:     sessions,
		catalog:      cat,
		ledger:       ledger,
		metrics:      metrics,
		logger:       logger,
		upgrader:     newUpgrader(opts.AllowedOrigins),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all endpoints
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Shop-wide reads need no visitor state
	shared := s.router.Group("/api")
	{
		shared.GET("/orders", s.handleListOrders)
		shared.GET("/metrics", s.handleMetrics)
	}

	visitor := s.router.Group("/", s.sessions.Middleware())
	{
		visitor.GET("/", s.handleHome)
		visitor.GET("/information", s.handleInformationPage)
		visitor.GET("/profile", s.handleProfilePage)
		visitor.GET("/ws", s.handleWebSocket)
	}

	api := s.router.Group("/api", s.sessions.Middleware())
	{
		api.GET("/chat/history", s.handleHistory)
		api.POST("/chat", s.handleChat)

		api.GET("/information", s.handleGetInformation)
		api.POST("/information/items", s.handleAddItem)
		api.PUT("/information/items/:index", s.handleEditItem)
		api.DELETE("/information/items/:index", s.handleDeleteItem)
		api.PUT("/information/general", s.handleUpdateGeneral)
		api.POST("/information/save", s.handleSave)
	}
}

// Router returns the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleListOrders(c *gin.Context) {
	lines, err := s.ledger.Lines()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": lines})
}

// handleMetrics returns the in-memory metrics snapshot
func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Monitor().GetMetrics())
}
