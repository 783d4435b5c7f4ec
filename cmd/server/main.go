package main

import (
	"context"
	"net/http"
	"os"

	"socialnet/backend/internal/auth"
	"socialnet/backend/internal/cache"
	"socialnet/backend/internal/chat"
	"socialnet/backend/internal/config"
	"socialnet/backend/internal/database"
	"socialnet/backend/internal/handler"
	"socialnet/backend/internal/notification"
	"socialnet/backend/internal/realtime"
	"socialnet/backend/internal/relationship"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
)

// @title           Socialnet Graph API
// @version         1.0
// @description     Social graph relationships and realtime fan-out.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	log := zerologr.New(&zl)

	cfg, err := config.Load()
	if err != nil {
		log.Error(err, "configuration load failed")
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error(err, "database connection failed")
		os.Exit(1)
	}

	redisClient, err := cache.Connect(cfg.RedisURL)
	if err != nil {
		log.Error(err, "redis connection failed")
		os.Exit(1)
	}
	redisCache := cache.NewRedisCache(redisClient)

	ctx := context.Background()

	chatRepo := chat.NewRepo(db)
	notificationRepo := notification.NewRepo(db)
	graph := relationship.NewStore(db, chatRepo)
	relationCache := relationship.NewCache(redisCache, cfg.RelationshipCacheTTL, !cfg.IsProduction(), log.WithName("relcache"))

	presence := realtime.NewPresenceStore(redisCache, cfg.PresenceTTL)
	backplane := realtime.NewRedisBackplane(redisClient, "socialnet:events", log.WithName("backplane"))
	registry := realtime.NewRegistry(backplane, presence, chatRepo, log.WithName("realtime"))

	fanout := notification.NewFanout(cfg.NotificationQueueSize, notificationRepo, registry, log.WithName("fanout"))
	registry.OnConnect(fanout.HandleConnect)

	engine := relationship.NewEngine(graph, relationCache, registry, fanout, log.WithName("relationship"))

	chatService := chat.NewService(chatRepo, registry, presence, cfg.PresencePollInterval, log.WithName("chat"))
	chatService.Register()

	registry.Start(ctx)
	fanout.Start(ctx)

	relationHandler := handler.NewRelationHandler(engine)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	chatHandler := handler.NewChatHandler(chatService)
	wsHandler := handler.NewWSHandler(cfg, registry, log.WithName("ws"))

	router := gin.Default()

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	apiV1.GET("/ws", wsHandler.Connect)

	protected := apiV1.Group("")
	protected.Use(auth.AuthMiddleware(cfg))
	{
		profileRoutes := protected.Group("/profiles")
		{
			profileRoutes.GET("/me/friends", relationHandler.GetFriends)
			profileRoutes.GET("/me/friend-requests", relationHandler.GetFriendRequests)
			profileRoutes.GET("/me/friend-suggestions", relationHandler.GetFriendSuggestions)
			profileRoutes.GET("/:id/relationship", relationHandler.GetRelationship)
			profileRoutes.GET("/:id/mutual-friends", relationHandler.GetMutualFriends)
			profileRoutes.POST("/:id/friend-request", relationHandler.SendFriendRequest)
			profileRoutes.POST("/:id/accept", relationHandler.AcceptFriendRequest)
			profileRoutes.POST("/:id/reject", relationHandler.RejectFriendRequest)
			profileRoutes.POST("/:id/cancel", relationHandler.CancelFriendRequest)
			profileRoutes.POST("/:id/unfriend", relationHandler.Unfriend)
		}

		notificationRoutes := protected.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.GetNotifications)
			notificationRoutes.GET("/unread-count", notificationHandler.GetUnreadNotificationsCount)
			notificationRoutes.POST("/mark", notificationHandler.MarkNotifications)
		}

		conversationRoutes := protected.Group("/conversations")
		{
			conversationRoutes.GET("", chatHandler.GetConversations)
			conversationRoutes.GET("/:id/messages", chatHandler.GetMessages)
		}
	}

	log.Info("server starting", "addr", cfg.ListenAddr, "env", cfg.Env)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Error(err, "server stopped")
		os.Exit(1)
	}
}
