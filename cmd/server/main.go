package main

import (
	"context"
	"log/slog"
	"os"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/aischool/dashboard/backend/internal/realtime"
	"github.com/aischool/dashboard/backend/internal/router"
	"github.com/aischool/dashboard/backend/pkg/config"
	"github.com/aischool/dashboard/backend/pkg/firebase"
	"github.com/aischool/dashboard/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := config.InitDB()
	if err != nil {
		logger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.CloseDB()

	// Initialize Firebase for federated login (optional)
	var authClient *firebaseauth.Client
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Error("failed to initialize Firebase", slog.String("error", err.Error()))
			os.Exit(1)
		}
		authClient = firebaseApp.AuthClient
	} else {
		logger.Warn("FIREBASE_CREDENTIALS_PATH not set, federated login disabled")
	}

	// Real-time hub
	var hub *realtime.Hub
	if cfg.RealtimeEnabled {
		hub = realtime.NewHub(logger)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e, cfg.AllowedOrigins)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, db.Postgres, authClient, hub, cfg, logger); err != nil {
		logger.Error("failed to set up routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start server
	logger.Info("starting server", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
