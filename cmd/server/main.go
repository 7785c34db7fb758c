package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
	config "github.com/sarthakganguly/social-media-aggregator/configs"
	"github.com/sarthakganguly/social-media-aggregator/internal/api/handlers"
	"github.com/sarthakganguly/social-media-aggregator/internal/api/middleware"
	job "github.com/sarthakganguly/social-media-aggregator/internal/jobs"
	"github.com/sarthakganguly/social-media-aggregator/internal/orchestrator"
	"github.com/sarthakganguly/social-media-aggregator/internal/provider"
	"github.com/sarthakganguly/social-media-aggregator/internal/queue"
	"github.com/sarthakganguly/social-media-aggregator/internal/repository"
	"github.com/sarthakganguly/social-media-aggregator/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	asynqClient := asynq.NewClient(redisConn)
	defer asynqClient.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	attemptRepo := repository.NewPublishAttemptRepository(db)

	registry := provider.NewRegistry(
		provider.NewLinkedinAdapter(*cfg),
		provider.NewTwitterAdapter(*cfg),
	)

	queueClient := queue.NewClient(asynqClient, cfg.PublishMaxAttempts)
	orch := orchestrator.New(*cfg, postRepo, credentialRepo, attemptRepo, registry, queueClient)
	worker := queue.NewWorker(orch)

	postService := service.NewPostService(postRepo, attemptRepo, orch)
	platformService := service.NewPlatformService(*cfg, credentialRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/drafts", post.ListDrafts)
	api.Get("/posts/attempts", post.ListAttempts)
	api.Post("/posts/remove", post.RemovePost)

	platform := handlers.NewPlatformHandler(platformService, *cfg)
	api.Get("/auth/:platform", platform.ConnectAccount)
	api.Get("/auth/:platform/callback", platform.CallbackHandler)
	api.Get("/accounts", platform.ListAccounts)
	api.Post("/accounts/remove", platform.DisconnectAccount)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(credentialRepo, orch)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency:    10,
			RetryDelayFunc: queue.ConstantRetryDelay(cfg.PublishRetryDelay),
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, worker.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
