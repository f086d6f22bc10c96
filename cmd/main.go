package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherly/notification-engine/internal/consumer"
	"github.com/gatherly/notification-engine/internal/handler"
	"github.com/gatherly/notification-engine/internal/middleware"
	"github.com/gatherly/notification-engine/internal/queue"
	"github.com/gatherly/notification-engine/internal/realtime"
	"github.com/gatherly/notification-engine/internal/repository"
	"github.com/gatherly/notification-engine/internal/scheduler"
	"github.com/gatherly/notification-engine/internal/service"
	"github.com/gatherly/notification-engine/internal/shared/config"
	"github.com/gatherly/notification-engine/internal/shared/logger"
	"github.com/gatherly/notification-engine/internal/shared/mongodb"
	"github.com/gatherly/notification-engine/internal/shared/rabbitmq"
	"github.com/gatherly/notification-engine/internal/smtp"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Initialize logger
	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting Notification Engine...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	// Initialize MongoDB
	mongoClient, err := mongodb.NewMongoClient(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Initialize RabbitMQ
	rabbitMQClient, err := rabbitmq.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", "error", err)
	}
	defer rabbitMQClient.Close()

	// Initialize repositories
	notificationRepo := repository.NewNotificationRepository(mongoClient)
	preferencesRepo := repository.NewPreferencesRepository(mongoClient)
	eventRepo := repository.NewEventRepository(mongoClient)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := notificationRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatal("Failed to create notification indexes", "error", err)
	}
	if err := preferencesRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatal("Failed to create preference indexes", "error", err)
	}
	cancelIndexes()

	// Initialize email channel
	smtpPool := smtp.NewPool(smtp.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	}, cfg.SMTP.PoolSize)
	defer smtpPool.Close()

	emailService := service.NewEmailService(service.EmailConfig{
		FromEmail:   cfg.SMTP.FromEmail,
		FromName:    cfg.SMTP.FromName,
		SendTimeout: cfg.Email.SendTimeout,
	}, smtpPool, notificationRepo, service.DefaultEmailRetryPolicy(cfg.Email.MaxAttempts), log)

	emailQueue := queue.NewEmailQueue()
	emailWorkers := service.NewEmailWorkerPool(emailService, emailQueue, cfg.Email.Workers, log)
	emailWorkers.Start()
	defer emailWorkers.Stop()

	// Initialize dispatch pipeline
	hub := realtime.NewHub(log)
	resolver := service.NewResolver(preferencesRepo, log)
	dispatcher := service.NewDispatcher(notificationRepo, resolver, hub, emailQueue, eventRepo, log)
	triggerProcessor := service.NewTriggerProcessor(dispatcher, eventRepo, log)

	// Initialize scheduler
	reminderScheduler := scheduler.NewReminderScheduler(
		dispatcher, resolver, eventRepo, preferencesRepo, notificationRepo,
		cfg.Scheduler.SweepInterval, cfg.Scheduler.RetentionDays, log)
	if err := reminderScheduler.Start(); err != nil {
		log.Fatal("Failed to start reminder scheduler", "error", err)
	}
	defer reminderScheduler.Stop()

	// Initialize HTTP handlers
	notificationHandler := handler.NewNotificationHandler(notificationRepo, log)
	preferencesHandler := handler.NewPreferencesHandler(preferencesRepo, log)
	streamHandler := handler.NewStreamHandler(hub, log)

	// Initialize rate limiter
	rateLimiter := middleware.NewUserRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes scoped to the authenticated user
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireUser())
	v1.Use(middleware.RateLimitMiddleware(rateLimiter))
	{
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.GET("/stream", streamHandler.Stream)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.DELETE("", notificationHandler.Clear)
		}

		preferences := v1.Group("/preferences")
		{
			preferences.GET("", preferencesHandler.Get)
			preferences.PUT("", preferencesHandler.Update)
		}
	}

	// Start trigger consumer
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	triggerConsumer := consumer.NewTriggerConsumer(rabbitMQClient, triggerProcessor, log)
	go triggerConsumer.Run(consumerCtx)

	// Start HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Notification Engine started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Notification Engine...")
	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Notification Engine stopped")
}
