package router

import (
	"spiritual_growth_service/internal/history/app"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// RegisterRoutes register the message-log routes
func RegisterRoutes(r *fiber.App, handler *app.HistoryHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)

	r.Get("/messages", handler.ListMessages)
	r.Post("/messages", handler.SendMessage)
	r.Patch("/messages/:id/read", handler.MarkRead)
}
