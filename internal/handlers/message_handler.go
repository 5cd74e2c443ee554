package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/premkumar3616/junk-chat/internal/bus"
	"github.com/premkumar3616/junk-chat/internal/models"
	"github.com/premkumar3616/junk-chat/internal/services"
	chatws "github.com/premkumar3616/junk-chat/internal/websocket"
	"github.com/premkumar3616/junk-chat/pkg/utils"
)

type messageApplicationService interface {
	Send(ctx context.Context, senderID, recipientID int64, content string) (*models.Message, error)
	MarkRead(ctx context.Context, userID, contactID int64) error
	ConversationWith(ctx context.Context, userID, contactID int64) ([]models.Message, error)
}

type MessageHandler struct {
	service   messageApplicationService
	bus       *bus.Bus
	jwtSecret string
}

type sendMessageRequest struct {
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content"`
}

func NewMessageHandler(service messageApplicationService, deliveryBus *bus.Bus, jwtSecret string) *MessageHandler {
	return &MessageHandler{
		service:   service,
		bus:       deliveryBus,
		jwtSecret: jwtSecret,
	}
}

func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	contactID, err := strconv.ParseInt(c.Params("contactId"), 10, 64)
	if err != nil || contactID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contact id"})
	}

	messages, err := h.service.ConversationWith(c.Context(), userID, contactID)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := h.service.Send(c.Context(), userID, req.RecipientID, req.Content)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	contactID, err := strconv.ParseInt(c.Params("contactId"), 10, 64)
	if err != nil || contactID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contact id"})
	}

	if err := h.service.MarkRead(c.Context(), userID, contactID); err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(fiber.Map{"status": "read"})
}

func (h *MessageHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	return c.Next()
}

func (h *MessageHandler) HandleWebSocket(conn *websocket.Conn) {
	userIDStr, _ := conn.Locals("user_id").(string)
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		_ = conn.Close()
		return
	}

	client := chatws.NewClient(h.bus, conn, userID)
	go client.WritePump()
	client.ReadPump()
}

func (h *MessageHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func mapMessageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyContent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message content is required"})
	case errors.Is(err, services.ErrInvalidParty):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message parties"})
	case errors.Is(err, services.ErrRecipientNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Recipient not found"})
	case errors.Is(err, services.ErrContactNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contact not found"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process request"})
	}
}
