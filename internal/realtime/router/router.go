package router

import (
	"context"

	"spiritual_growth_service/internal/realtime/app"
	"spiritual_growth_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes register the realtime websocket endpoint. A request that
// carries a token is validated up front and its session starts out bound;
// a bare upgrade is accepted too and stays unusable until the client
// authenticates over the socket.
func RegisterRoutes(r *fiber.App, realtimeWebsocket *app.RealtimeWebsocketHandler) {
	jwt := middlewares.JWTMiddleware()
	r.Use(func(c *fiber.Ctx) error {
		if c.Query(middlewares.QueryToken) == "" && c.Cookies(middlewares.CookieToken) == "" {
			return c.Next()
		}
		return jwt(c)
	})

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		realtimeWebsocket.HandleConnection(context.Background(), c)
	}))
}
