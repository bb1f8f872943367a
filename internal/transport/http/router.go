package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vidtube/internal/handler"
	"vidtube/internal/httputil"
	authmw "vidtube/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	VideoHandler        *handler.VideoHandler
	CommentHandler      *handler.CommentHandler
	ReactionHandler     *handler.ReactionHandler
	SubscriptionHandler *handler.SubscriptionHandler
	FeedHandler         *handler.FeedHandler
	CategoryHandler     *handler.CategoryHandler
	MediaHandler        *handler.MediaHandler
	WebhookHandler      *handler.WebhookHandler
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	r.Get("/categories", cfg.CategoryHandler.List)

	// Webhook from the media pipeline, authenticated by signature
	r.Post("/webhooks/pipeline", cfg.WebhookHandler.HandlePipeline)

	// Public watch-page routes with optional authentication: signed-in viewers
	// get their reactions and subscription state joined in.
	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalAuthMiddleware(cfg.JWTSecret))

		r.Get("/videos/{id}", cfg.VideoHandler.Watch)
		r.Get("/videos/{id}/suggestions", cfg.VideoHandler.ListSuggestions)
		r.Get("/videos/{id}/comments", cfg.CommentHandler.List)
		r.Get("/channels/{id}", cfg.UserHandler.GetChannel)
		r.Get("/channels/{id}/subscribers", cfg.SubscriptionHandler.ListSubscribers)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Put("/me/avatar", cfg.UserHandler.UploadAvatar)

		// Auth actions that require authentication
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		// Subscription feed
		r.Get("/feed", cfg.FeedHandler.GetFeed)

		// Video mutations
		r.Post("/videos", cfg.VideoHandler.Create)
		r.Patch("/videos/{id}", cfg.VideoHandler.Update)
		r.Delete("/videos/{id}", cfg.VideoHandler.Delete)

		// Studio endpoints (owner's view)
		r.Route("/studio/videos", func(r chi.Router) {
			r.Get("/", cfg.VideoHandler.ListStudio)
			r.Get("/{id}", cfg.VideoHandler.Get)
			r.Put("/{id}/thumbnail", cfg.MediaHandler.UploadThumbnail)
			r.Post("/{id}/generate", cfg.VideoHandler.Generate)
		})

		// Comments
		r.Post("/videos/{id}/comments", cfg.CommentHandler.Create)
		r.Patch("/comments/{commentId}", cfg.CommentHandler.Update)
		r.Delete("/comments/{commentId}", cfg.CommentHandler.Delete)

		// Reactions
		r.Put("/videos/{id}/reaction", cfg.ReactionHandler.ReactToVideo)
		r.Delete("/videos/{id}/reaction", cfg.ReactionHandler.RemoveVideoReaction)
		r.Put("/comments/{commentId}/reaction", cfg.ReactionHandler.ReactToComment)
		r.Delete("/comments/{commentId}/reaction", cfg.ReactionHandler.RemoveCommentReaction)

		// Subscriptions
		r.Post("/channels/{id}/subscribe", cfg.SubscriptionHandler.Subscribe)
		r.Delete("/channels/{id}/subscribe", cfg.SubscriptionHandler.Unsubscribe)
	})

	return r
}
