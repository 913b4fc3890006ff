package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"go.uber.org/zap"

	"github.com/HmmOrange/gizmo-backend/internal/api"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo/config"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo/session"
)

func main() {
	// Load configuration from environment
	serverConfig, err := config.Load(config.WithEnv("GIZMO"))
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	logger, err := serverConfig.BuildLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Build service from configuration
	svc, cleanup, err := serverConfig.BuildService(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to build service", zap.Error(err))
	}
	defer cleanup()

	issuer, err := serverConfig.BuildSessionIssuer()
	if err != nil {
		logger.Fatal("Failed to build session issuer", zap.Error(err))
	}

	// Create HTTP server
	server := NewHTTPServer(svc, issuer, serverConfig, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: server.Routes(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Gizmo server starting",
			zap.String("port", serverConfig.Port),
			zap.String("environment", serverConfig.Environment),
			zap.String("database", serverConfig.DatabaseType))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// HTTPServer wraps the gizmo service for HTTP access
type HTTPServer struct {
	service gizmo.Service
	issuer  *session.Issuer
	config  *config.ServerConfig
	logger  *zap.Logger
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(service gizmo.Service, issuer *session.Issuer, serverConfig *config.ServerConfig, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		service: service,
		issuer:  issuer,
		config:  serverConfig,
		logger:  logger,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS for development
	if s.config.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Resource-Password")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	// Health check
	r.Get("/health", s.handleHealth)

	// API routes. The verifier only extracts the session token; anonymous
	// requests pass through and individual handlers decide what they need.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.issuer.Auth()))

		r.Mount("/auth", api.NewAuthHandler(s.service, s.issuer, s.logger).Routes())

		r.Mount("/pastes", api.NewResourceHandler(s.service, gizmo.KindPaste, s.logger).Routes())
		r.Mount("/images", api.NewResourceHandler(s.service, gizmo.KindImage, s.logger).Routes())
		r.Mount("/albums", api.NewResourceHandler(s.service, gizmo.KindAlbum, s.logger).Routes())

		r.Mount("/bookmarks", api.NewEngagementHandler(s.service).Routes())
	})

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","environment":%q}`, s.config.Environment)
}
