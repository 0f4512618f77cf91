package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	fiberws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/postpilot/api/internal/client"
	"github.com/postpilot/api/internal/config"
	"github.com/postpilot/api/internal/handler"
	"github.com/postpilot/api/internal/middleware"
	"github.com/postpilot/api/internal/scraper"
	"github.com/postpilot/api/internal/service"
	"github.com/postpilot/api/internal/store"
	"github.com/postpilot/api/internal/websocket"
	"github.com/postpilot/api/internal/worker"
)

func main() {
	// .env is optional; real deployments use env vars or Docker secrets
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Redis backs the task queue regardless of the job store driver
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	jobStore, err := newJobStore(cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to open job store: %v", err)
	}
	defer jobStore.Close()
	log.Printf("Job store driver: %s", cfg.Store.Driver)

	validate := validator.New()
	zaiClient := client.NewZAIClient(&cfg.ZAI)
	articleScraper := scraper.New(cfg.Content.MaxExcerptLength)

	hub := websocket.NewHub()
	go hub.Run()

	// Services
	defaults := service.DefaultJobOptions(&cfg.Content)
	jobService := service.NewJobService(jobStore, service.NewAsynqEnqueuer(asynqClient), defaults)
	contentService := service.NewContentService(zaiClient, &cfg.Content)

	// Handlers
	setupHandler := handler.NewSetupHandler(zaiClient)
	jobHandler := handler.NewJobHandler(jobService, validate)
	metaHandler := handler.NewMetaHandler(cfg, zaiClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Base routes
	app.Get("/", metaHandler.Index)
	app.Get("/health", metaHandler.Health)

	// API routes
	api := app.Group("/api", middleware.APIKey())
	api.Post("/setup", setupHandler.Setup)
	api.Post("/start-job", jobHandler.Start)
	api.Post("/generate", jobHandler.Start)
	api.Get("/job-status/:jobId", jobHandler.Status)
	api.Get("/job-results/:jobId", jobHandler.Results)
	api.Get("/jobs", jobHandler.List)
	api.Get("/topics", metaHandler.Topics)
	api.Get("/config", metaHandler.Config)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/jobs/:jobId", fiberws.New(func(c *fiberws.Conn) {
		hub.HandleConnection(c, c.Params("jobId"))
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, jobService, contentService, articleScraper, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newJobStore(cfg *config.Config, redisClient *redis.Client) (store.JobStore, error) {
	switch cfg.Store.Driver {
	case "redis":
		return store.NewRedisStore(redisClient), nil
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLite.Path)
	default:
		return store.NewMemoryStore(), nil
	}
}

func startWorkerServer(cfg *config.Config, jobService *service.JobService, contentService *service.ContentService, articleScraper *scraper.Scraper, hub *websocket.Hub) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"generate": 10,
			},
		},
	)

	generateWorker := worker.NewGenerateWorker(jobService, contentService, articleScraper, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeGenerate, generateWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
