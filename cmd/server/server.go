package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-history-server/internal/config"
	"chat-history-server/internal/db"
	"chat-history-server/internal/handlers"
	"chat-history-server/internal/services"
	"chat-history-server/pkg/logger"
	"chat-history-server/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupServer initializes and returns a configured HTTP server
func SetupServer(cfg *config.Config) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	if cfg.Server.Port <= 0 {
		return nil, errors.New("invalid server port")
	}

	// Initialize database
	database, err := db.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Seed the initial administrator if enabled
	if cfg.Seed.Enable {
		if err := database.SeedAdmin(cfg.Seed.AdminPhone, cfg.Seed.AdminPassword); err != nil {
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Initialize repositories
	userRepo := db.NewUserRepository(database.GetDB())
	exportRepo := db.NewExportRepository(database.GetDB())

	// Initialize services
	userService := services.NewUserService(userRepo, cfg)
	exportService := services.NewExportService(exportRepo, cfg.Storage.UploadDir)
	chatService := services.NewChatService(exportService)

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestSizeLimitMiddleware(cfg.Storage.MaxUploadSize))
	router.Use(middleware.AuditLogMiddleware())

	// Setup routes
	setupRoutes(router, cfg, userService, exportService, chatService)

	// Create server with security timeouts
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

// setupRoutes configures all the HTTP routes
func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	userService *services.UserService,
	exportService *services.ExportService,
	chatService *services.ChatService,
) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, userService)
	userHandler := handlers.NewUserHandler(userService, exportService)
	chatHandler := handlers.NewChatHandler(chatService)

	// Basic health check endpoint (public)
	router.GET("/health", handleHealthCheck)

	// Auth endpoints (public)
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected routes group
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/logout", authHandler.Logout)

		// Conversation browsing (every account sees only its own export)
		chatGroup := protected.Group("/chat")
		{
			chatGroup.GET("/conversations", chatHandler.GetConversations)
			chatGroup.GET("/messages/:mobile_number", chatHandler.GetMessages)
			chatGroup.GET("/search", chatHandler.Search)
		}

		// Account management (administrators only)
		adminGroup := protected.Group("/users")
		adminGroup.Use(middleware.AdminRequired())
		{
			adminGroup.GET("", userHandler.List)
			adminGroup.POST("", userHandler.Create)
			adminGroup.GET("/:id", userHandler.Get)
			adminGroup.PUT("/:id", userHandler.Update)
			adminGroup.DELETE("/:id", userHandler.Delete)
			adminGroup.POST("/:id/upload-csv", userHandler.UploadCSV)
			adminGroup.POST("/:id/totp", userHandler.GenerateTOTP)
			adminGroup.POST("/:id/totp/enable", userHandler.EnableTOTP)
			adminGroup.DELETE("/:id/totp", userHandler.DisableTOTP)
		}
	}
}

// handleHealthCheck handles the health check endpoint
func handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"version": version,
		"service": "chat-history-server",
	})
}

// StartServer starts the HTTP server and handles graceful shutdown
func StartServer(srv *http.Server) error {
	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

// StartServerWithContext starts the HTTP server with a context for shutdown control
func StartServerWithContext(ctx context.Context, srv *http.Server) error {
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
