package middleware

import (
	"deskwarrior/backend/config"
	"deskwarrior/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware requires a valid service token from the messaging front
// end. The validated bot id is stored in locals for handlers that care.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		botID, err := utils.ExtractBotIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		c.Locals("bot_id", botID)
		return c.Next()
	}
}
