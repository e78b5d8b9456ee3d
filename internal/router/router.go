package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rescuelink/rescue-go-api/internal/config"
	"github.com/rescuelink/rescue-go-api/internal/handler"
	"github.com/rescuelink/rescue-go-api/internal/middleware"
	"github.com/rescuelink/rescue-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	MessageHandler      *handler.MessageHandler
	NotificationHandler *handler.NotificationHandler
	CallHandler         *handler.CallHandler
	RealtimeHandler     *handler.RealtimeHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.MessageHandler != nil {
		messages := api.Group("/message", jwtMiddleware, middleware.RateLimit("message", 30, time.Minute))
		deps.MessageHandler.Register(messages)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notification", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.CallHandler != nil {
		calls := api.Group("/calls", jwtMiddleware)
		deps.CallHandler.Register(calls)
	}

	if deps.RealtimeHandler != nil {
		ws := app.Group("/ws", jwtMiddleware)
		deps.RealtimeHandler.Register(ws)
	}
}
