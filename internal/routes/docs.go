package routes

import "github.com/gofiber/fiber/v2"

type endpointDoc struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Auth   bool   `json:"auth"`
	Desc   string `json:"desc"`
}

var endpointIndex = []endpointDoc{
	{"GET", "/health", false, "Liveness check"},
	{"POST", "/api/auth/register", false, "Create an account"},
	{"POST", "/api/auth/login", false, "Exchange credentials for a JWT"},
	{"GET", "/api/auth/me", true, "Current user from token"},
	{"GET", "/api/profile", true, "Fetch own profile"},
	{"PUT", "/api/profile", true, "Update profile fields"},
	{"GET", "/api/users/search", true, "Search users; contacts pinned first"},
	{"POST", "/api/contacts", true, "Add a contact by username"},
	{"DELETE", "/api/contacts", true, "Remove a contact and hide the conversation"},
	{"GET", "/api/messages/:contactId", true, "Conversation with a contact, hidden messages filtered"},
	{"POST", "/api/messages", true, "Send a direct message"},
	{"POST", "/api/messages/mark-read/:contactId", true, "Mark inbound messages from a contact as read"},
	{"GET", "/api/ws", true, "WebSocket; subscribe/unsubscribe to delivery topics"},
}

// registerDocs serves a machine-readable endpoint index. Only mounted
// outside production.
func registerDocs(app *fiber.App) {
	app.Get("/docs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":      "junk-chat API",
			"endpoints": endpointIndex,
		})
	})
}
