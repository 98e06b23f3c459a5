package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/pairly-app/pairly-backend/internal/config"
	"github.com/pairly-app/pairly-backend/internal/handlers"
	"github.com/pairly-app/pairly-backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	legalHandler *handlers.LegalHandler,
	userHandler *handlers.UserHandler,
	quizHandler *handlers.QuizHandler,
	matchHandler *handlers.MatchHandler,
	visibilityHandler *handlers.VisibilityHandler,
	chatHandler *handlers.ChatHandler,
	notificationHandler *handlers.NotificationHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Legal pages, public
	api.Get("/legal/privacy", legalHandler.PrivacyPolicy)
	api.Get("/legal/terms", legalHandler.TermsOfService)

	// Auth is public, with a stricter 10 req/min per IP limit
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// JWT applied per route here so the public auth routes stay untouched
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	users := api.Group("/users", middleware.JWTProtected(cfg))
	users.Get("/me", userHandler.Me)
	users.Put("/me", userHandler.UpdateMe)
	users.Get("/:id", userHandler.GetUser)

	quiz := api.Group("/quiz", middleware.JWTProtected(cfg))
	quiz.Post("/edit", quizHandler.Edit)
	quiz.Get("/my", quizHandler.My)
	quiz.Get("/user/:id", quizHandler.ForUser)
	quiz.Post("/submit", matchHandler.Submit)
	quiz.Get("/match-percent/:userId", matchHandler.MatchPercent)

	matches := api.Group("/matches", middleware.JWTProtected(cfg))
	matches.Get("/", matchHandler.List)
	matches.Get("/count", matchHandler.Count)
	matches.Get("/discover", matchHandler.Discover)

	visibility := api.Group("/visibility", middleware.JWTProtected(cfg))
	visibility.Post("/block", visibilityHandler.Block)
	visibility.Post("/dismiss", visibilityHandler.Dismiss)
	visibility.Post("/unblock", visibilityHandler.Unblock)

	chat := api.Group("/chat", middleware.JWTProtected(cfg))
	chat.Post("/", chatHandler.CreateRoom)
	chat.Get("/rooms", chatHandler.ListRooms)
	chat.Post("/message", chatHandler.SendMessage)
	chat.Post("/messages", chatHandler.GetMessages)
	chat.Post("/:roomId/leave", chatHandler.LeaveRoom)

	notifications := api.Group("/notifications", middleware.JWTProtected(cfg))
	notifications.Get("/", notificationHandler.List)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	// Admin panel (JWT + admin middleware)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Get("/visibility", visibilityHandler.AdminList)
	admin.Post("/visibility", visibilityHandler.AdminSet)
	admin.Delete("/visibility/:id", visibilityHandler.AdminDelete)
	admin.Delete("/chat/:roomId/participants", chatHandler.AdminRemoveParticipants)
}
