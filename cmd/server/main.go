package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carecollective/careconnect/internal/config"
	"github.com/carecollective/careconnect/internal/handler"
	"github.com/carecollective/careconnect/internal/middleware"
	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/ratelimit"
	"github.com/carecollective/careconnect/internal/repository"
	"github.com/carecollective/careconnect/internal/service"
	"github.com/carecollective/careconnect/internal/ws"
	"github.com/carecollective/careconnect/migrations"
	"github.com/carecollective/careconnect/pkg/auth"
	"github.com/carecollective/careconnect/pkg/notification"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title           CareConnect Messaging API
// @version         1.0
// @description     Real-time conversation engine for the CareConnect community mutual-aid platform.

// @contact.name   API Support
// @contact.email  support@careconnect.local

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting CareConnect Messaging API [env=%s]", cfg.App.Env)

	// ==================== Database (PostgreSQL) ====================
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	// ==================== Run Migrations ====================
	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("⚠️  Migration warning: %v", err)
		log.Println("📦 Falling back to GORM AutoMigrate...")
		if err := db.AutoMigrate(
			&model.User{},
			&model.HelpRequest{},
			&model.Conversation{},
			&model.Participant{},
			&model.Message{},
			&model.MessageReport{},
			&model.MessagingPreferences{},
		); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
	}
	log.Println("✅ Database migrated successfully")

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// ==================== Initialize Layers ====================
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	reportRepo := repository.NewReportRepository(db)
	helpRepo := repository.NewHelpRequestRepository(db)
	deviceRepo := repository.NewDeviceRepository(rdb)

	// Rate limiting
	startLimiter := ratelimit.NewStartLimiter(rdb, cfg.RateLimit.ConversationStarts, cfg.RateLimit.StartWindow)
	userLimiter := ratelimit.NewUserLimiter(float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.RequestsPerSecond*2)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			userLimiter.Cleanup()
		}
	}()

	// Services
	authService := service.NewAuthService(userRepo, jwtManager, rdb)
	messagingService := service.NewMessagingService(convRepo, msgRepo, prefRepo, helpRepo, reportRepo, startLimiter)
	moderationService := service.NewModerationService(reportRepo, msgRepo, convRepo)

	// WebSocket Hub (with Redis Pub/Sub for horizontal scaling)
	hub := ws.NewHub(rdb, func(userID uuid.UUID, online bool) {
		status := model.PresenceOffline
		if online {
			status = model.PresenceOnline
		}
		_ = userRepo.UpdatePresence(userID, status)
		log.Printf("👤 User %s is now %s", userID, status)
	})

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// Typing indicators: prune entries whose stop events were lost
	typingTracker := ws.NewTypingTracker()
	go func() {
		ticker := time.NewTicker(ws.TypingTTL)
		defer ticker.Stop()
		for {
			select {
			case <-hubCtx.Done():
				return
			case <-ticker.C:
				typingTracker.Prune(time.Now())
			}
		}
	}()

	// Push notifications (FCM)
	notifier, err := notification.NewNotificationService(cfg.Firebase.CredentialsFile, deviceRepo, messagingService)
	if err != nil {
		log.Printf("⚠️  FCM not available: %v (push notifications disabled)", err)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	convHandler := handler.NewConversationHandler(messagingService, moderationService, hub)
	msgHandler := handler.NewMessageHandler(messagingService, moderationService, hub, notifier)
	modHandler := handler.NewModerationHandler(moderationService, hub)
	deviceHandler := handler.NewDeviceHandler(deviceRepo)
	wsHandler := handler.NewWSHandler(hub, messagingService, jwtManager, typingTracker)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger UI; swagger.json is generated into ./docs
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "careconnect-messaging",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(jwtManager, rdb))
		{
			protected.POST("/auth/logout", authHandler.Logout)

			// Conversations
			protected.GET("/conversations", convHandler.List)
			protected.POST("/conversations", middleware.RateLimit(userLimiter), convHandler.Create)
			protected.POST("/conversations/help", middleware.RateLimit(userLimiter), convHandler.StartHelp)
			protected.GET("/conversations/:id", convHandler.Get)

			// Messages
			protected.GET("/conversations/:id/messages", msgHandler.List)
			protected.POST("/conversations/:id/messages", middleware.RateLimit(userLimiter), msgHandler.Send)
			protected.POST("/messages/:id/read", msgHandler.MarkRead)
			protected.POST("/messages/:id/report", msgHandler.Report)
			protected.DELETE("/messages/:id", msgHandler.Delete)

			// Preferences
			protected.GET("/preferences", convHandler.GetPreferences)
			protected.PUT("/preferences", convHandler.UpdatePreferences)

			// Devices
			protected.POST("/devices", deviceHandler.Register)
			protected.DELETE("/devices", deviceHandler.Unregister)

			// Moderation (admins only)
			mod := protected.Group("/moderation")
			mod.Use(middleware.AdminRequired())
			{
				mod.GET("/queue", modHandler.Queue)
				mod.POST("/reports/:id", modHandler.ProcessReport)
				mod.POST("/conversations/:id/close", modHandler.CloseConversation)
				mod.POST("/conversations/:id/block", modHandler.BlockConversation)
			}
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 CareConnect Messaging API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)
	log.Printf("🔌 WebSocket: ws://0.0.0.0:%s/ws?token=<jwt>", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	hubCancel()
	log.Println("✅ Server exited gracefully")
}
