package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sheet-sync-service/internal/clients"
	"sheet-sync-service/internal/config"
	"sheet-sync-service/internal/events"
	"sheet-sync-service/internal/handlers"
	"sheet-sync-service/internal/middleware"
	"sheet-sync-service/internal/models"
	"sheet-sync-service/internal/repository"
	"sheet-sync-service/internal/services"
	"sheet-sync-service/internal/sheets"
	"sheet-sync-service/internal/subscribers"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto-migrate database schema
	if err := migrateDatabase(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis client (optional - graceful degradation if Redis unavailable)
	var redisClient *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("Warning: Failed to parse Redis URL: %v", err)
			log.Println("Continuing without Redis caching...")
		} else {
			redisClient = redis.NewClient(opt)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("Warning: Failed to connect to Redis: %v", err)
				log.Println("Continuing without Redis caching...")
				redisClient = nil
			} else {
				log.Println("✓ Connected to Redis for caching")
			}
		}
	} else {
		log.Println("REDIS_URL not configured, caching disabled")
	}

	// Initialize Google Sheets client
	sheetsClient, err := sheets.NewClient(context.Background(), cfg.Spreadsheet.SpreadsheetID, cfg.Spreadsheet.CredentialsFile, logger)
	if err != nil {
		log.Fatalf("Failed to initialize Google Sheets client: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db, redisClient)
	syncLogRepo := repository.NewSyncLogRepository(db)

	// Initialize NATS events publisher
	var eventsPublisher *events.Publisher
	eventsPublisher, err = events.NewPublisher(cfg.App.NATSURL, logger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize NATS events publisher: %v (continuing without order events)", err)
		eventsPublisher = nil
	} else {
		log.Println("✓ NATS events publisher initialized")
	}

	// Initialize external clients
	var notificationClient clients.NotificationClient
	if cfg.App.SendGridAPIKey != "" {
		notificationClient = clients.NewNotificationClient(cfg.App.SendGridAPIKey, cfg.App.MailFromName, cfg.App.MailFromAddress, logger)
		log.Println("✓ Notification client initialized for buyer emails")
	} else {
		log.Println("SENDGRID_API_KEY not configured, buyer emails disabled")
	}

	var paymentClient clients.PaymentClient
	if cfg.App.PaymentAPIURL != "" {
		paymentClient = clients.NewPaymentClient(cfg.App.PaymentAPIURL, cfg.App.PaymentAPIKey)
		log.Println("✓ Payment gateway client initialized")
	}

	// Initialize services
	loopGuard := services.NewLoopGuard()
	masterWriter := services.NewMasterWriter(sheetsClient, orderRepo, userRepo, loopGuard, cfg.Spreadsheet.MasterSheet, logger)
	syncService := services.NewSyncService(sheetsClient, userRepo, productRepo, orderRepo, syncLogRepo, eventsPublisher, logger)
	reconciliationService := services.NewReconciliationService(sheetsClient, orderRepo, masterWriter, cfg.Spreadsheet.MasterSheet, logger)
	webhookService := services.NewWebhookService(sheetsClient, orderRepo, syncLogRepo, loopGuard, eventsPublisher, cfg.Spreadsheet.MasterSheet, logger)
	paymentService := services.NewPaymentService(orderRepo, userRepo, masterWriter, paymentClient, notificationClient, logger)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderRepo, masterWriter)
	syncHandler := handlers.NewSyncHandler(syncService, syncLogRepo, handlers.SyncSheets{
		Master:   cfg.Spreadsheet.MasterSheet,
		GroupBuy: cfg.Spreadsheet.GroupBuySheet,
		Form:     cfg.Spreadsheet.FormSheet,
	})
	webhookHandler := handlers.NewWebhookHandler(webhookService, cfg.Spreadsheet.WebhookToken)
	reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService)

	// Start payment event subscriber
	paymentSubscriber, err := subscribers.NewPaymentSubscriber(cfg.App.NATSURL, paymentService, logger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize payment subscriber: %v (continuing without payment events)", err)
		paymentSubscriber = nil
	} else {
		if err := paymentSubscriber.Start(context.Background()); err != nil {
			log.Printf("WARNING: Payment subscriber failed to start: %v", err)
		} else {
			log.Println("✓ Payment event subscriber started")
		}
	}

	// Setup router
	router := setupRouter(cfg, orderHandler, syncHandler, webhookHandler, reconciliationHandler)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down Sheet Sync Service...")

		if paymentSubscriber != nil {
			paymentSubscriber.Stop()
			log.Println("✓ Payment subscriber stopped")
		}

		if eventsPublisher != nil {
			eventsPublisher.Close()
			log.Println("✓ Events publisher closed")
		}

		log.Println("Sheet sync service stopped")
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting Sheet Sync Service on %s", cfg.GetServerAddress())
	if err := router.Run(cfg.GetServerAddress()); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initDatabase initializes the database connection
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}

// migrateDatabase runs database migrations
func migrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.SyncLog{},
	)
}

// setupRouter configures the Gin router with middleware and routes
func setupRouter(
	cfg *config.Config,
	orderHandler *handlers.OrderHandler,
	syncHandler *handlers.SyncHandler,
	webhookHandler *handlers.WebhookHandler,
	reconciliationHandler *handlers.ReconciliationHandler,
) *gin.Engine {
	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	api := router.Group("/api/v1")
	{
		orders := api.Group("/orders")
		{
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:orderNo", orderHandler.GetOrder)
			orders.POST("/:orderNo/export", orderHandler.ExportOrder)
			orders.POST("/:orderNo/patch", orderHandler.PatchOrderToMaster)
		}

		syncGroup := api.Group("/sync")
		{
			syncGroup.POST("/master", syncHandler.SyncMaster)
			syncGroup.POST("/intake/:source", syncHandler.SyncIntake)
			syncGroup.POST("/upload", syncHandler.UploadXLSX)
			syncGroup.GET("/logs", syncHandler.ListSyncLogs)
		}

		reconciliation := api.Group("/reconciliation")
		{
			reconciliation.POST("/run", reconciliationHandler.Run)
			reconciliation.POST("/fix", reconciliationHandler.ApplyFix)
		}

		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/sheet-edit", webhookHandler.HandleSheetEdit)
		}
	}

	return router
}
