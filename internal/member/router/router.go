package router

import (
	"spiritual_growth_service/internal/member/app"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes register member account and profile routes.
func RegisterRoutes(r *fiber.App, memberHandler *app.MemberHandler) {
	r.Post("/register", memberHandler.Register)
	r.Post("/login", memberHandler.Login)
	r.Post("/logout", memberHandler.Logout)
	r.Post("/force_logout", memberHandler.ForceLogout)
	r.Post("/session/check", memberHandler.CheckSessionTimeout)
	r.Post("/session/reconnect", memberHandler.ReconnectSession)
	r.Get("/members/:id/profile", memberHandler.GetProfile)
}
