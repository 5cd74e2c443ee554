package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/premkumar3616/junk-chat/internal/models"
	"github.com/premkumar3616/junk-chat/internal/services"
)

type stubContactService struct {
	addResult    *models.ContactSummary
	addErr       error
	removeResult *models.ContactRemoval
	removeErr    error
	searchResult []models.ContactSummary
	searchErr    error
	lastOwnerID  int64
	lastUsername string
	lastQuery    string
}

func (s *stubContactService) AddContact(_ context.Context, ownerID int64, contactIdentifier string) (*models.ContactSummary, error) {
	s.lastOwnerID = ownerID
	s.lastUsername = contactIdentifier
	return s.addResult, s.addErr
}

func (s *stubContactService) RemoveContact(_ context.Context, ownerID int64, contactIdentifier string) (*models.ContactRemoval, error) {
	s.lastOwnerID = ownerID
	s.lastUsername = contactIdentifier
	return s.removeResult, s.removeErr
}

func (s *stubContactService) SearchContacts(_ context.Context, ownerID int64, query string) ([]models.ContactSummary, error) {
	s.lastOwnerID = ownerID
	s.lastQuery = query
	return s.searchResult, s.searchErr
}

func newContactTestApp(service contactApplicationService, userID string) *fiber.App {
	handler := NewContactHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/contacts", handler.AddContact)
	app.Delete("/api/contacts", handler.RemoveContact)
	app.Get("/api/users/search", handler.SearchUsers)
	return app
}

func TestAddContactReturnsSummary(t *testing.T) {
	service := &stubContactService{
		addResult: &models.ContactSummary{ID: 7, Username: "bob", UnreadCount: 2},
	}
	app := newContactTestApp(service, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`{"username":"bob"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastOwnerID != 42 || service.lastUsername != "bob" {
		t.Fatalf("unexpected forwarded args: %d %q", service.lastOwnerID, service.lastUsername)
	}

	var body struct {
		Contact models.ContactSummary `json:"contact"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Contact.ID != 7 || body.Contact.UnreadCount != 2 {
		t.Fatalf("unexpected response: %+v", body.Contact)
	}
}

func TestAddContactRequiresUsername(t *testing.T) {
	app := newContactTestApp(&stubContactService{}, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAddContactMapsUnknownUser(t *testing.T) {
	app := newContactTestApp(&stubContactService{addErr: services.ErrContactNotFound}, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`{"username":"ghost"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRemoveContactReturnsRemoval(t *testing.T) {
	service := &stubContactService{
		removeResult: &models.ContactRemoval{ID: 7, Username: "bob"},
	}
	app := newContactTestApp(service, "42")

	req := httptest.NewRequest(http.MethodDelete, "/api/contacts", strings.NewReader(`{"username":"bob"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Removed models.ContactRemoval `json:"removed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Removed.ID != 7 || body.Removed.Username != "bob" {
		t.Fatalf("unexpected response: %+v", body.Removed)
	}
}

func TestRemoveContactMapsMissingEdge(t *testing.T) {
	app := newContactTestApp(&stubContactService{removeErr: services.ErrNotFound}, "42")

	req := httptest.NewRequest(http.MethodDelete, "/api/contacts", strings.NewReader(`{"username":"bob"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSearchUsersForwardsQuery(t *testing.T) {
	service := &stubContactService{
		searchResult: []models.ContactSummary{
			{ID: 7, Username: "bob"},
			{ID: 8, Username: "bobby"},
		},
	}
	app := newContactTestApp(service, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/users/search?query=bob", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastOwnerID != 42 || service.lastQuery != "bob" {
		t.Fatalf("unexpected forwarded args: %d %q", service.lastOwnerID, service.lastQuery)
	}

	var body struct {
		Users []models.ContactSummary `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Users) != 2 {
		t.Fatalf("unexpected response: %+v", body.Users)
	}
}
