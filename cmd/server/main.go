package main

import (
	"github.com/labstack/echo/v4"
	"github.com/pulseapp/pulse-server/internal/router"
	"github.com/pulseapp/pulse-server/pkg/config"
	"github.com/pulseapp/pulse-server/validators"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Initialize database connection (loads .env first)
	db, err := config.InitDB()
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer config.CloseDB(db)
	logger.Info("connected to PostgreSQL")

	cfg := config.Load()

	// Create Echo instance
	e := echo.New()
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, db, cfg, logger); err != nil {
		logger.Fatal("failed to set up routes", zap.Error(err))
	}

	// Start server
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
