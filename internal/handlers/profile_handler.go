package handlers

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/premkumar3616/junk-chat/internal/models"
	"github.com/premkumar3616/junk-chat/internal/services"
)

const maxProfilePicBytes = 5 * 1024 * 1024

type profileApplicationService interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, input models.UpdateUserInput) (*models.User, error)
}

type ProfileHandler struct {
	service profileApplicationService
}

type updateProfileRequest struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	ProfilePic *string `json:"profilePic"`
}

func NewProfileHandler(service profileApplicationService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.service.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{"user": user})
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if message := validateProfileUpdateRequest(&req); message != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
	}

	updated, err := h.service.UpdateProfile(c.Context(), userID, models.UpdateUserInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Profile update failed"})
	}

	return c.JSON(fiber.Map{"user": updated})
}

// validateProfileUpdateRequest normalizes the optional fields in place and
// returns an error message for the first invalid one.
func validateProfileUpdateRequest(req *updateProfileRequest) string {
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		if len(trimmed) < 3 {
			return "Username must be at least 3 characters"
		}
		req.Username = &trimmed
	}

	if req.Email != nil {
		parsed, err := mail.ParseAddress(strings.TrimSpace(*req.Email))
		if err != nil {
			return "Invalid email format"
		}
		normalized := strings.ToLower(parsed.Address)
		req.Email = &normalized
	}

	if req.Password != nil && len(*req.Password) < 8 {
		return "Password must be at least 8 characters"
	}

	if req.ProfilePic != nil && *req.ProfilePic != "" {
		if !strings.HasPrefix(*req.ProfilePic, "data:image/") {
			return "Invalid profile picture format"
		}
		if len(*req.ProfilePic) > maxProfilePicBytes {
			return "Profile picture size exceeds 5MB"
		}
	}

	return ""
}
