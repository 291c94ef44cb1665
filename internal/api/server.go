package api

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/AnamolZ/weatherly/internal/refresher"
	"github.com/AnamolZ/weatherly/internal/weather"
	"github.com/AnamolZ/weatherly/internal/widget"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	router    *gin.Engine
	server    *http.Server
	view      *widget.View
	refresher *refresher.Refresher
	port      int
}

type ServerConfig struct {
	Port      int
	View      *widget.View
	Refresher *refresher.Refresher
	Debug     bool
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:    router,
		view:      cfg.View,
		refresher: cfg.Refresher,
		port:      cfg.Port,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	tmpl := template.Must(template.ParseFS(templatesFS, "templates/*.html"))
	s.router.SetHTMLTemplate(tmpl)

	// Widget routes
	s.router.GET("/", s.widgetHandler)
	s.router.HEAD("/", s.widgetHandler)
	s.router.POST("/search", s.searchFormHandler)
	s.router.POST("/unit", s.unitFormHandler)
	s.router.POST("/view", s.viewFormHandler)

	// Health check
	s.router.GET("/health", s.healthHandler)

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.GET("/state", s.stateHandler)
		api.POST("/search", s.searchHandler)
		api.POST("/unit/toggle", s.toggleUnitHandler)
		api.POST("/view/toggle", s.toggleViewHandler)
		api.POST("/refresh", s.refreshHandler)
	}
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) widgetHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "widget.html", gin.H{
		"title":  "Weatherly",
		"screen": widget.NewScreen(s.view.State()),
	})
}

// searchFormHandler is the form equivalent of typing a city and pressing
// Enter. Failures are shown on the page, so it always redirects.
func (s *Server) searchFormHandler(c *gin.Context) {
	s.view.SetSearchText(c.PostForm("city"))
	_ = s.view.HandleKeyPress(c.Request.Context(), widget.EnterKey)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) unitFormHandler(c *gin.Context) {
	s.view.ToggleUnit()
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) viewFormHandler(c *gin.Context) {
	s.view.ToggleViewMode()
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) healthHandler(c *gin.Context) {
	state := s.view.State()

	resp := gin.H{
		"status":      "healthy",
		"has_weather": state.Current != nil,
		"timestamp":   time.Now(),
	}
	if s.refresher != nil {
		resp["refresh"] = s.refresher.Status()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) stateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.view.State())
}

type searchRequest struct {
	City string `json:"city"`
}

func (s *Server) searchHandler(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := s.view.Search(c.Request.Context(), req.City); err != nil {
		s.fetchFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view.State())
}

func (s *Server) refreshHandler(c *gin.Context) {
	if err := s.view.Refresh(c.Request.Context()); err != nil {
		s.fetchFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view.State())
}

func (s *Server) fetchFailed(c *gin.Context, err error) {
	state := s.view.State()
	c.JSON(http.StatusBadGateway, gin.H{
		"error": weather.Message(err),
		"state": state,
	})
}

func (s *Server) toggleUnitHandler(c *gin.Context) {
	unit := s.view.ToggleUnit()
	c.JSON(http.StatusOK, gin.H{"unit": unit})
}

func (s *Server) toggleViewHandler(c *gin.Context) {
	mode := s.view.ToggleViewMode()
	c.JSON(http.StatusOK, gin.H{"view_mode": mode})
}
