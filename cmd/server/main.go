package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"bondledger/internal/adapters/http/middleware"
	"bondledger/internal/adapters/http/routes"
	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/config"
	"bondledger/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	_ "bondledger/docs" // Swagger docs
)

// @title Bond Ledger API
// @version 1.0
// @description Tokenized bond inventory and settlement ledger API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@bondledger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.bondledger.io
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Structured logger for the core services
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsDev() {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed development parties
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed: %v", err)
	}

	// Optional notification broker
	var notifier services.Notifier
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		notifier = services.NewRedisNotifier(rdb, logger)
		log.Printf("✅ Notifications enabled [%s]", cfg.Redis.Addr)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Bond Ledger API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	deps := routes.Setup(app, db, cfg, logger, notifier)

	// Daily coupon cycle and maturity scan
	if cfg.Scheduler.Enabled {
		cronService := services.NewCronService(deps.Coupons, deps.Directory, cfg.Scheduler.Schedule, logger)
		if err := cronService.Start(); err != nil {
			log.Fatalf("❌ Failed to start scheduler: %v", err)
		}
		defer cronService.Stop()
	}

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
