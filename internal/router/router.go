package router

import (
	"log/slog"

	"firebase.google.com/go/v4/auth"
	"github.com/aischool/dashboard/backend/internal/handlers"
	"github.com/aischool/dashboard/backend/internal/middleware"
	"github.com/aischool/dashboard/backend/internal/models"
	"github.com/aischool/dashboard/backend/internal/realtime"
	"github.com/aischool/dashboard/backend/internal/repositories"
	"github.com/aischool/dashboard/backend/internal/services"
	"github.com/aischool/dashboard/backend/pkg/config"
	"github.com/aischool/dashboard/backend/pkg/mailer"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware. With no configured
// origins the CORS middleware stays permissive; websocket upgrades still fall
// back to same-origin in that case.
func SetupMiddleware(e *echo.Echo, allowedOrigins []string) {
	e.Use(eMiddleware.Recover())
	if len(allowedOrigins) > 0 {
		e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
			AllowOrigins: allowedOrigins,
		}))
	} else {
		e.Use(eMiddleware.CORS())
	}
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *gorm.DB, firebaseAuthClient *auth.Client, hub *realtime.Hub, cfg *config.Config, logger *slog.Logger) error {
	// AutoMigrate PostgreSQL models
	if err := db.AutoMigrate(
		&models.User{},
		&models.Notification{},
	); err != nil {
		return err
	}
	logger.Info("PostgreSQL auto-migrations completed")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db)
	notificationRepo := repositories.NewPostgresNotificationRepository(db)

	// --- Delivery channels ---
	var sender mailer.Sender
	if cfg.EmailEnabled {
		sender = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPTimeout)
	} else {
		sender = mailer.NewDevSender(logger)
	}

	var emitter services.Emitter
	if cfg.RealtimeEnabled && hub != nil {
		emitter = hub
	}

	notificationService := services.NewNotificationService(notificationRepo, sender, emitter, logger)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Websocket endpoint (token in query string) ---
	if cfg.RealtimeEnabled && hub != nil {
		wsHandler := handlers.NewWSHandler(hub, notificationService, cfg.AllowedOrigins, logger)
		e.GET("/ws", wsHandler.Serve)
	}

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())

	notificationHandler := handlers.NewNotificationHandler(notificationService, emitter, cfg.Env)
	notificationHandler.RegisterNotificationRoutes(api)

	logger.Info("All routes configured")
	return nil
}
