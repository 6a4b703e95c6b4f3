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

	"inventory-service/config"
	"inventory-service/internal/api"
	"inventory-service/internal/broker"
	"inventory-service/internal/redisclient"
	"inventory-service/internal/service"
	"inventory-service/internal/store"
	"inventory-service/internal/util"
	"inventory-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting inventory service")

	// Prices and report totals go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	tp, err := util.InitTracer("inventory-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
	}

	// Redis only backs the notification lock and the read mirror; the
	// service keeps running without it.
	var locker service.Locker
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, notification lock disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		locker = redisClient
		logger.Info("Redis connected")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicInventory)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicInventory))

	// Writes hand change events to one queue so they never wait on the broker.
	publishQueue := service.NewPublishQueue(broker.NewEventPublisher(producer), cfg.Kafka.PublishBuffer, 5*time.Second)

	notificationService := service.NewNotificationService(db, db, locker, publishQueue, service.NotificationConfig{
		DefaultUserID: cfg.Business.DefaultUserID,
		Timeout:       time.Duration(cfg.Business.NotificationTimeoutSeconds) * time.Second,
		LockTTL:       time.Duration(cfg.Business.NotificationLockSeconds) * time.Second,
	})
	itemService := service.NewItemService(db, db, notificationService, publishQueue)
	catalogService := service.NewCatalogService(db, publishQueue)
	reportService := service.NewReportService(db, db)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var syncWorker *worker.SyncWorker
	if cfg.Kafka.SyncWorkerEnable && redisClient != nil {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicInventory, cfg.Kafka.ConsumerGroup)
		syncWorker = worker.NewSyncWorker(consumer, redisClient)
		go func() {
			if err := syncWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Sync worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	handler := api.NewHandler(itemService, catalogService, notificationService, reportService, db, api.Options{
		DefaultUserID:  cfg.Business.DefaultUserID,
		DefaultPerPage: cfg.Business.DefaultPerPage,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := notificationService.Drain(shutdownCtx); err != nil {
		logger.Warn("Pending notification tasks abandoned", zap.Error(err))
	}
	if err := publishQueue.Drain(shutdownCtx); err != nil {
		logger.Warn("Pending change events abandoned", zap.Error(err))
	}
	publishQueue.Close()

	workerCancel()
	if syncWorker != nil {
		_ = syncWorker.Stop()
	}

	logger.Info("Server exited")
}
