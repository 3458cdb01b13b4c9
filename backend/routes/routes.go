package routes

import (
	"deskwarrior/backend/config"
	"deskwarrior/backend/controllers"
	"deskwarrior/backend/middleware"
	"deskwarrior/backend/services"
	"deskwarrior/backend/store"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) error {
	sessions, err := store.NewSessionStore(db)
	if err != nil {
		return err
	}
	selector := services.NewCardSelector(cfg.RandSeed, cfg.TipProbability)
	svc := services.NewFlashcardService(sessions, selector, cfg)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	api := app.Group("/api", authMiddleware)

	// Flashcard routes
	flashcardController := controllers.NewFlashcardController(svc, cfg)
	api.Post("/flashcards", flashcardController.RequestCard)
	api.Post("/flashcards/complete", flashcardController.Complete)

	// User routes
	userController := controllers.NewUserController(svc, cfg)
	api.Post("/users/guest", userController.CreateGuest)
	api.Get("/users/:id", userController.GetProfile)
	api.Get("/users/:id/summary", userController.GetSummary)
	api.Put("/users/:id/tag", userController.SetTag)
	api.Post("/users/:id/premium", userController.ActivatePremium)
	api.Put("/users/:id/interval", userController.SetInterval)

	// Leaderboard routes
	leaderboardController := controllers.NewLeaderboardController(svc, cfg)
	api.Get("/leaderboards/:chatID", leaderboardController.GetLeaderboard)

	return nil
}
