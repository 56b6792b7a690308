package app

import (
	"spiritual_growth_service/internal/member/repository"
	"spiritual_growth_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler exposes the member use cases over HTTP.
type MemberHandler struct {
	Usecase MemberUseCase
}

// NewMemberHandler create MemberHandler
func NewMemberHandler(usecase MemberUseCase) *MemberHandler {
	return &MemberHandler{Usecase: usecase}
}

type registerReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Tier        string `json:"tier"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenReq struct {
	Token string `json:"token"`
}

// Register handle POST /register
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "malformed request"})
	}
	logger.Log.Debug("Register Req", zap.String("email", req.Email))

	if err := h.Usecase.Register(c.Context(), req.Email, req.Password, req.DisplayName, req.Tier); err != nil {
		logger.Log.Error("Register Err", zap.String("email", req.Email), zap.String("Err :", err.Error()))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "message": "create success"})
}

// Login handle POST /login
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "malformed request"})
	}
	logger.Log.Debug("Login :", zap.String("email", req.Email))

	token, err := h.Usecase.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		logger.Log.Error("Login Err", zap.String("email", req.Email), zap.String("Err :", err.Error()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "token": token, "message": "login success"})
}

// Logout handle POST /logout
func (h *MemberHandler) Logout(c *fiber.Ctx) error {
	var req tokenReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "malformed request"})
	}
	logger.Log.Info("logout")

	if err := h.Usecase.Logout(c.Context(), req.Token); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "message": "logout success"})
}

// ForceLogout handle POST /force_logout
func (h *MemberHandler) ForceLogout(c *fiber.Ctx) error {
	memberID := c.Query("member_id")
	logger.Log.Info("ForceLogout", zap.String("memberID", memberID))

	if err := h.Usecase.ForceLogout(c.Context(), memberID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "message": "logout success"})
}

// CheckSessionTimeout handle POST /session/check
func (h *MemberHandler) CheckSessionTimeout(c *fiber.Ctx) error {
	var req tokenReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "malformed request"})
	}

	expire, err := h.Usecase.CheckSessionTimeout(c.Context(), req.Token)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "expire": expire, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "expire": expire, "message": "check success"})
}

// ReconnectSession handle POST /session/reconnect
func (h *MemberHandler) ReconnectSession(c *fiber.Ctx) error {
	var req tokenReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "malformed request"})
	}

	if err := h.Usecase.ReconnectSession(c.Context(), req.Token); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "message": "reconnect success"})
}

// GetProfile handle GET /members/:id/profile
func (h *MemberHandler) GetProfile(c *fiber.Ctx) error {
	memberID := c.Params("id")

	profile, err := h.Usecase.GetProfile(c.Context(), memberID)
	if err != nil {
		status := fiber.StatusInternalServerError
		if err == repository.ErrMemberNotFound {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "profile": profile})
}
