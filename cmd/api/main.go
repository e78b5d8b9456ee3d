package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rescuelink/rescue-go-api/internal/config"
	"github.com/rescuelink/rescue-go-api/internal/database"
	"github.com/rescuelink/rescue-go-api/internal/handler"
	"github.com/rescuelink/rescue-go-api/internal/middleware"
	"github.com/rescuelink/rescue-go-api/internal/models"
	"github.com/rescuelink/rescue-go-api/internal/realtime"
	"github.com/rescuelink/rescue-go-api/internal/repository"
	"github.com/rescuelink/rescue-go-api/internal/router"
	"github.com/rescuelink/rescue-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.ChatMessage{}, &models.Notification{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, cross-node fan-out over redis disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, cross-node fan-out over nats disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	var bridge *realtime.Bridge
	if redisClient != nil || natsConn != nil {
		bridge = realtime.NewBridge(redisClient, natsConn, cfg.EventBusBase, logger)
	}
	hub := realtime.NewHub(bridge, logger)

	messageService := service.NewMessageService(conversationRepo, messageRepo, notificationRepo, hub, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, logger)
	callService := service.NewCallService(hub, logger)
	presenceService := service.NewPresenceService(hub, logger)
	dispatcher := service.NewEventDispatcher(hub, presenceService, callService, validate, logger)

	messageHandler := handler.NewMessageHandler(messageService, validate, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	callHandler := handler.NewCallHandler(callService, logger)
	realtimeHandler := handler.NewRealtimeHandler(hub, dispatcher, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		MessageHandler:      messageHandler,
		NotificationHandler: notificationHandler,
		CallHandler:         callHandler,
		RealtimeHandler:     realtimeHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub.Start(runCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-runCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
