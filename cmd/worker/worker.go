package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"docstore-platform/internal/broker"
	"docstore-platform/internal/components"
	"docstore-platform/internal/config"
	"docstore-platform/internal/database"
	"docstore-platform/internal/logger"
	"docstore-platform/internal/queue"
	"docstore-platform/internal/storage"
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

	// Connect to Redis (event relay broker)
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Wire services
	repos := database.NewMongoRepositories(mongoClient, cfg.DBName)
	files := storage.NewStore(cfg.FileStorageDir)
	registries := components.DefaultRegistries()
	docs := services.NewDocumentStoreService(repos, files, registries, cfg)
	index := services.NewVectorIndexService(repos, registries, mongoClient, cfg)
	events := services.NewEventPublisher(broker.NewRedisBroker(rdb))

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create task processor
	processor := queue.NewTaskProcessor(docs, index, events)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskProcessLoader, processor.HandleProcessLoader)
	mux.HandleFunc(queue.TaskUpsertStore, processor.HandleUpsertStore)

	log.Println("Starting worker...")
	log.Printf("   Concurrency: %d", cfg.WorkerConcurrency)
	log.Printf("   Redis: %s", cfg.RedisURL)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
