package app

import (
	"errors"
	"strconv"

	"spiritual_growth_service/internal/history/domain"
	"spiritual_growth_service/internal/history/repository"
	"spiritual_growth_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HistoryHandler HTTP surface over the message log
type HistoryHandler struct {
	historyUC *HistoryUseCase
}

// NewHistoryHandler create HistoryHandler
func NewHistoryHandler(historyUC *HistoryUseCase) *HistoryHandler {
	return &HistoryHandler{historyUC: historyUC}
}

// SendMessageRequest POST /messages body
type SendMessageRequest struct {
	Room     string `json:"room"`
	SenderID string `json:"sender_id"`
	Content  string `json:"content"`
}

// ListMessages GET /messages?room=&limit=&offset=
// Responds 503 when the store signals connection exhaustion; clients retry
// with backoff on that status.
func (h *HistoryHandler) ListMessages(c *fiber.Ctx) error {
	roomName := c.Query("room")
	if roomName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing room"})
	}

	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
	offset, _ := strconv.ParseInt(c.Query("offset", "0"), 10, 64)

	messages, err := h.historyUC.List(c.Context(), roomName, limit, offset)
	if err != nil {
		return h.errStatus(c, err)
	}

	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// SendMessage POST /messages
func (h *HistoryHandler) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	msg, err := h.historyUC.Save(c.Context(), req.Room, req.SenderID, req.Content)
	if err != nil {
		return h.errStatus(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkRead PATCH /messages/:id/read
func (h *HistoryHandler) MarkRead(c *fiber.Ctx) error {
	messageID := c.Params("id")
	if err := h.historyUC.MarkRead(c.Context(), messageID); err != nil {
		return h.errStatus(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HistoryHandler) errStatus(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrStoreBusy):
		logger.Log.Warn("message store busy", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "store busy"})
	case errors.Is(err, repository.ErrMessageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrUnknownRoom),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrEmptySender),
		errors.Is(err, domain.ErrBadAddressing),
		errors.Is(err, ErrReadOnlyRoom):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		logger.Log.Errorf("history handler error:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
