package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"docstore-platform/internal/broker"
	"docstore-platform/internal/components"
	"docstore-platform/internal/config"
	"docstore-platform/internal/database"
	"docstore-platform/internal/logger"
	"docstore-platform/internal/storage"
	"docstore-platform/internal/telemetry"
	"docstore-platform/middleware"
	"docstore-platform/routes"
	"docstore-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis (broker + rate limiting)
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Tracing
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("docstore-platform", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracing:", err)
		}
		defer shutdown()
	}

	// Wire services
	repos := database.NewMongoRepositories(mongoClient, cfg.DBName)
	files := storage.NewStore(cfg.FileStorageDir)
	registries := components.DefaultRegistries()
	docs := services.NewDocumentStoreService(repos, files, registries, cfg)
	index := services.NewVectorIndexService(repos, registries, mongoClient, cfg)

	eventBroker := broker.NewRedisBroker(rdb)
	streamer := services.NewSSEStreamer()
	relay := services.NewEventRelay(eventBroker, streamer)

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	// Janitor surfaces stores parked in transitional states
	janitor := services.NewJanitorService(repos, time.Duration(cfg.StuckStateThreshold)*time.Minute)
	if err := janitor.Start(10 * time.Minute); err != nil {
		log.Fatal("Failed to start janitor:", err)
	}
	defer janitor.Stop()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize))
	router.Use(middleware.RateLimit(rdb, cfg.RateLimitReqs, time.Duration(cfg.RateLimitWindow)*time.Second))
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupDocumentStoreRoutes(router, &routes.DocumentStoreHandler{
		Cfg:   cfg,
		Docs:  docs,
		Index: index,
		Queue: queueClient,
	})
	routes.SetupStreamRoutes(router, &routes.StreamHandler{
		Streamer: streamer,
		Relay:    relay,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
