// Package server exposes the practice library over HTTP: files,
// segments, transcripts, providers, stats and semantic search.
package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "mp3player/docs"
	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/library"
	"mp3player/internal/app/repository"
	"mp3player/internal/app/search"
	"mp3player/internal/config"
	"mp3player/internal/server/middleware"
)

// Dependencies are the services the API serves. Searcher and
// Orchestrator may be nil; the affected endpoints then return 503.
type Dependencies struct {
	DB           repository.TranscriptDAO
	Library      *library.Scanner
	Orchestrator provider.TranscriptionOrchestrator
	Registry     provider.ProviderRegistry
	Searcher     *search.Searcher
	FilesDir     string
}

// Server wraps the gin engine and its http.Server.
type Server struct {
	cfg        *config.ServerConfig
	deps       Dependencies
	router     *gin.Engine
	httpServer *http.Server
	log        *zap.Logger
}

// New builds the router and middleware chain.
func New(cfg *config.ServerConfig, deps Dependencies, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: router,
		log:    log,
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 10 * time.Minute, // synchronous transcription can be slow
			IdleTimeout:  60 * time.Second,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/files", s.handleListFiles)
		v1.GET("/files/:name/segments", s.handleFileSegments)
		v1.GET("/transcripts", s.handleListTranscripts)
		v1.POST("/transcriptions", s.handleCreateTranscription)
		v1.GET("/providers", s.handleListProviders)
		v1.GET("/stats", s.handleStats)
		v1.POST("/search/semantic", s.handleSemanticSearch)
	}

	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":       "m3p",
			"documentation": "/swagger/index.html",
		})
	})
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start begins serving in the background.
func (s *Server) Start() {
	s.log.Info("api server starting",
		zap.String("addr", s.httpServer.Addr),
		zap.String("environment", s.cfg.Environment))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("api server stopped", zap.Error(err))
		}
	}()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("api server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	s.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
