package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/premkumar3616/junk-chat/internal/bus"
	"github.com/premkumar3616/junk-chat/internal/config"
	"github.com/premkumar3616/junk-chat/internal/handlers"
	"github.com/premkumar3616/junk-chat/internal/middleware"
	"github.com/premkumar3616/junk-chat/internal/repository"
	"github.com/premkumar3616/junk-chat/internal/services"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, deliveryBus *bus.Bus) {
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	contactRepo := repository.NewContactRepository(db)

	messageService := services.NewMessageService(db, messageRepo, contactRepo, userRepo, deliveryBus)
	userService := services.NewUserService(userRepo, contactRepo, messageRepo, deliveryBus)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	messageHandler := handlers.NewMessageHandler(messageService, deliveryBus, cfg.JWTSecret)
	contactHandler := handlers.NewContactHandler(messageService)
	profileHandler := handlers.NewProfileHandler(userService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authRequired := middleware.AuthRequired(cfg.JWTSecret)

	profile := api.Group("/profile", authRequired)
	profile.Get("", profileHandler.GetProfile)
	profile.Put("", profileHandler.UpdateProfile)

	users := api.Group("/users", authRequired)
	users.Get("/search", contactHandler.SearchUsers)

	contacts := api.Group("/contacts", authRequired)
	contacts.Post("", contactHandler.AddContact)
	contacts.Delete("", contactHandler.RemoveContact)

	messages := api.Group("/messages", authRequired)
	messages.Post("", messageHandler.SendMessage)
	messages.Post("/mark-read/:contactId", messageHandler.MarkRead)
	messages.Get("/:contactId", messageHandler.GetMessages)

	api.Use("/ws", messageHandler.WebSocketAuth)
	api.Get("/ws", websocket.New(messageHandler.HandleWebSocket))

	if cfg.DocsEnabled() {
		registerDocs(app)
	}
}
