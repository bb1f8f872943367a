package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vidtube/internal/cache"
	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/queue"
	"vidtube/internal/redis"
	"vidtube/internal/repository"
	"vidtube/internal/service"
	"vidtube/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		return err
	}

	videoRepo := repository.NewVideoRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	feedCache := cache.NewFeedCache(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)

	handler := worker.NewHandler(feedCache, subscriptionRepo, videoRepo)

	// AI generation jobs are optional: each provider is wired only when
	// its API key is configured, and the handler skips jobs for which no
	// runner exists.
	var textGen service.TextGenerator
	if cfg.AnthropicAPIKey != "" {
		textGen = service.NewClaudeTextGenerator(cfg.AnthropicAPIKey)
	}
	var imageGen service.ImageGenerator
	if cfg.OpenAIAPIKey != "" {
		imageGen = service.NewOpenAIImageGenerator(cfg.OpenAIAPIKey)
	}

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		log.Printf("[Worker] Media storage unavailable, thumbnail generation disabled: %v", err)
		mediaService = nil
	}

	var store service.ThumbnailStore
	if mediaService != nil {
		store = mediaService
	}
	handler.SetGenerationRunner(service.NewAIService(videoRepo, textGen, imageGen, store))

	feedManager := worker.NewManager(consumer, handler,
		worker.DefaultManagerConfig(queue.StreamFeed, queue.ConsumerGroupFeed))
	aiManager := worker.NewManager(consumer, handler,
		worker.DefaultManagerConfig(queue.StreamAI, queue.ConsumerGroupAI))

	if err := feedManager.Start(ctx); err != nil {
		return err
	}
	if err := aiManager.Start(ctx); err != nil {
		feedManager.Stop()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[Worker] Received %s, shutting down", sig)

	aiManager.Stop()
	feedManager.Stop()
	return nil
}
