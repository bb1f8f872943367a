package http

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"vidtube/internal/cache"
	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/handler"
	"vidtube/internal/queue"
	"vidtube/internal/redis"
	"vidtube/internal/repository"
	"vidtube/internal/service"
)

// Run wires every dependency together and starts the HTTP server.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// Infrastructure
	feedCache := cache.NewFeedCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)

	mediaService, err := service.NewMediaService(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("init media service: %w", err)
	}

	// Services
	userService := service.NewUserService(userRepo, subscriptionRepo)
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	videoService := service.NewVideoService(videoRepo, userRepo, categoryRepo, publisher, mediaService, db)
	commentService := service.NewCommentService(commentRepo, videoRepo, userRepo, db)
	reactionService := service.NewReactionService(videoRepo, commentRepo, db)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, userRepo, db, publisher)
	feedService := service.NewFeedService(feedCache, videoRepo, subscriptionRepo, userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	webhookService := service.NewWebhookService(videoRepo, publisher, cfg.PipelineWebhookSecret)

	r := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService),
		UserHandler:         handler.NewUserHandler(userService, mediaService),
		VideoHandler:        handler.NewVideoHandler(videoService),
		CommentHandler:      handler.NewCommentHandler(commentService),
		ReactionHandler:     handler.NewReactionHandler(reactionService),
		SubscriptionHandler: handler.NewSubscriptionHandler(subscriptionService),
		FeedHandler:         handler.NewFeedHandler(feedService),
		CategoryHandler:     handler.NewCategoryHandler(categoryService),
		MediaHandler:        handler.NewMediaHandler(mediaService, videoService),
		WebhookHandler:      handler.NewWebhookHandler(webhookService),
		JWTSecret:           cfg.JWTSecret,
	})

	addr := ":" + cfg.ServerPort
	log.Printf("[Server] Listening on %s", addr)
	return http.ListenAndServe(addr, r)
}
