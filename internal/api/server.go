// Package api exposes the execution engine over HTTP: a command endpoint,
// pending-plan review endpoints with aggregation, history listing, and a
// WebSocket feed broadcasting configuration changes to connected UIs.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gridfx-config-bot/internal/auth"
	"gridfx-config-bot/internal/executor"
)

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ProductionMode bool
}

// Server is the HTTP API server around one execution engine
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	engine      *executor.Engine
	authService *auth.Service
	jwtManager  *auth.JWTManager
	hub         *WSHub
	config      ServerConfig
	log         zerolog.Logger
}

// NewServer creates the API server. authService and jwtManager may be nil,
// which disables authentication entirely.
func NewServer(cfg ServerConfig, engine *executor.Engine, authService *auth.Service, jwtManager *auth.JWTManager, log zerolog.Logger) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:      router,
		engine:      engine,
		authService: authService,
		jwtManager:  jwtManager,
		hub:         NewWSHub(log),
		config:      cfg,
		log:         log.With().Str("component", "api").Logger(),
	}
	s.setupRoutes()
	go s.hub.Run()
	return s
}

// Hub returns the WebSocket hub, so other components can broadcast
func (s *Server) Hub() *WSHub {
	return s.hub
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/api/auth/login", s.handleLogin)

	api := s.router.Group("/api")
	if s.authService != nil && s.jwtManager != nil {
		api.Use(auth.Middleware(s.jwtManager))
	}
	{
		api.POST("/command", s.handleCommand)
		api.GET("/tree", s.handleTree)
		api.GET("/plan", s.handlePendingPlan)
		api.GET("/plan/aggregate", s.handleAggregate)
		api.POST("/plan/approve", s.handleApprove)
		api.POST("/plan/reject", s.handleReject)
		api.GET("/history", s.handleHistory)
	}

	// WebSocket auth is handled inside the handler (token query param)
	s.router.GET("/ws", s.handleWebSocket)
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// validateWSToken checks the token query parameter used by WebSocket
// clients, which cannot set an Authorization header from a browser.
func (s *Server) validateWSToken(c *gin.Context) bool {
	if s.authService == nil {
		return true
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return false
	}
	_, err := s.authService.Validate(token)
	return err == nil
}
