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

	"github.com/mataluis2k/quizMgr/internal/config"
	"github.com/mataluis2k/quizMgr/internal/database"
	"github.com/mataluis2k/quizMgr/internal/handlers"
	"github.com/mataluis2k/quizMgr/internal/middleware"
	"github.com/mataluis2k/quizMgr/internal/repository"
	"github.com/mataluis2k/quizMgr/internal/router"
	"github.com/mataluis2k/quizMgr/internal/services"
	"github.com/mataluis2k/quizMgr/internal/websocket"
	"github.com/mataluis2k/quizMgr/internal/worker"
)

func main() {
	log.Println("Starting quizMgr server...")

	cfg := config.Load()
	log.Println("Environment variables loaded")

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("PostgreSQL connected")

	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("Redis connected")

	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	log.Println("Database migrations applied")

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)
	submissionRepo := repository.NewSubmissionRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// Services
	generatorService, err := services.NewGeneratorService(
		cfg.GeminiAPIKey,
		cfg.GeminiConcurrentReqs,
		quizRepo,
		jobRepo,
		redisClients.Cache,
	)
	if err != nil {
		log.Fatalf("Gemini client initialization failed: %v", err)
	}
	defer generatorService.Close()
	log.Println("Gemini Flash client initialized")

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Cache, jwtAuth)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	quizHandler := handlers.NewQuizHandler(quizRepo, jobRepo, redisClients.Cache)
	renderHandler := handlers.NewRenderHandler(
		quizRepo,
		submissionRepo,
		redisClients.Cache,
		time.Duration(cfg.RenderCacheTTLSeconds)*time.Second,
	)

	// Worker pool for question drafting
	workerPool := worker.NewPool(redisClients.Cache, generatorService, jobRepo, cfg.DraftWorkers)
	workerPool.Start()
	log.Printf("Worker pool started (%d goroutines)", cfg.DraftWorkers)

	// WebSocket hub for builder updates
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("WebSocket hub started")

	r := router.New(
		jwtAuth,
		authHandler,
		quizHandler,
		renderHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("quizMgr ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
