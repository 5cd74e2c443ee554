package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/premkumar3616/junk-chat/internal/models"
)

type contactApplicationService interface {
	AddContact(ctx context.Context, ownerID int64, contactIdentifier string) (*models.ContactSummary, error)
	RemoveContact(ctx context.Context, ownerID int64, contactIdentifier string) (*models.ContactRemoval, error)
	SearchContacts(ctx context.Context, ownerID int64, query string) ([]models.ContactSummary, error)
}

type ContactHandler struct {
	service contactApplicationService
}

type contactRequest struct {
	Username string `json:"username"`
}

func NewContactHandler(service contactApplicationService) *ContactHandler {
	return &ContactHandler{service: service}
}

func (h *ContactHandler) AddContact(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username is required"})
	}

	summary, err := h.service.AddContact(c.Context(), userID, req.Username)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(fiber.Map{"contact": summary})
}

func (h *ContactHandler) RemoveContact(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username is required"})
	}

	removal, err := h.service.RemoveContact(c.Context(), userID, req.Username)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(fiber.Map{"removed": removal})
}

func (h *ContactHandler) SearchUsers(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	summaries, err := h.service.SearchContacts(c.Context(), userID, c.Query("query"))
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(fiber.Map{"users": summaries})
}
