package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/premkumar3616/junk-chat/internal/bus"
	"github.com/premkumar3616/junk-chat/internal/models"
	"github.com/premkumar3616/junk-chat/internal/services"
)

type stubMessageService struct {
	sendResult         *models.Message
	sendErr            error
	markReadErr        error
	conversationResult []models.Message
	conversationErr    error
	lastSenderID       int64
	lastRecipientID    int64
	lastContent        string
	lastUserID         int64
	lastContactID      int64
}

func (s *stubMessageService) Send(_ context.Context, senderID, recipientID int64, content string) (*models.Message, error) {
	s.lastSenderID = senderID
	s.lastRecipientID = recipientID
	s.lastContent = content
	return s.sendResult, s.sendErr
}

func (s *stubMessageService) MarkRead(_ context.Context, userID, contactID int64) error {
	s.lastUserID = userID
	s.lastContactID = contactID
	return s.markReadErr
}

func (s *stubMessageService) ConversationWith(_ context.Context, userID, contactID int64) ([]models.Message, error) {
	s.lastUserID = userID
	s.lastContactID = contactID
	return s.conversationResult, s.conversationErr
}

func newMessageTestApp(service messageApplicationService, userID string) *fiber.App {
	handler := NewMessageHandler(service, bus.New(), "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/messages/:contactId", handler.GetMessages)
	app.Post("/api/messages", handler.SendMessage)
	app.Post("/api/messages/mark-read/:contactId", handler.MarkRead)
	return app
}

func TestSendMessageReturnsCreatedMessage(t *testing.T) {
	service := &stubMessageService{
		sendResult: &models.Message{
			ID:          5,
			SenderID:    42,
			RecipientID: 7,
			Content:     "hello",
			SentAt:      time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		},
	}
	app := newMessageTestApp(service, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"recipientId":7,"content":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastSenderID != 42 || service.lastRecipientID != 7 || service.lastContent != "hello" {
		t.Fatalf("unexpected forwarded args: %d %d %q", service.lastSenderID, service.lastRecipientID, service.lastContent)
	}

	var body struct {
		Message models.Message `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Message.ID != 5 || body.Message.Content != "hello" {
		t.Fatalf("unexpected response: %+v", body.Message)
	}
}

func TestSendMessageMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"empty content", services.ErrEmptyContent, http.StatusBadRequest},
		{"invalid party", services.ErrInvalidParty, http.StatusBadRequest},
		{"recipient missing", services.ErrRecipientNotFound, http.StatusNotFound},
		{"storage down", services.ErrStorageUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newMessageTestApp(&stubMessageService{sendErr: tc.err}, "42")

			req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"recipientId":7,"content":"x"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestGetMessagesReturnsConversation(t *testing.T) {
	service := &stubMessageService{
		conversationResult: []models.Message{
			{ID: 1, SenderID: 42, RecipientID: 7, Content: "hi"},
			{ID: 2, SenderID: 7, RecipientID: 42, Content: "hey"},
		},
	}
	app := newMessageTestApp(service, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/messages/7", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != 42 || service.lastContactID != 7 {
		t.Fatalf("unexpected forwarded ids: %d %d", service.lastUserID, service.lastContactID)
	}

	var body struct {
		Messages []models.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Messages) != 2 || body.Messages[0].ID != 1 {
		t.Fatalf("unexpected response: %+v", body.Messages)
	}
}

func TestGetMessagesRejectsBadContactID(t *testing.T) {
	app := newMessageTestApp(&stubMessageService{}, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/messages/abc", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMarkReadForwardsIdentity(t *testing.T) {
	service := &stubMessageService{}
	app := newMessageTestApp(service, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/messages/mark-read/7", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != 42 || service.lastContactID != 7 {
		t.Fatalf("unexpected forwarded ids: %d %d", service.lastUserID, service.lastContactID)
	}
}

func TestMarkReadMapsContactNotFound(t *testing.T) {
	app := newMessageTestApp(&stubMessageService{markReadErr: services.ErrContactNotFound}, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/messages/mark-read/99", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMessageEndpointsRejectMissingIdentity(t *testing.T) {
	handler := NewMessageHandler(&stubMessageService{}, bus.New(), "secret")

	app := fiber.New()
	app.Get("/api/messages/:contactId", handler.GetMessages)

	req := httptest.NewRequest(http.MethodGet, "/api/messages/7", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
