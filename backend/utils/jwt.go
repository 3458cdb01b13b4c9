package utils

import (
	"deskwarrior/backend/config"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// GenerateServiceToken issues the token a messaging front end uses to call
// this backend. The bot process is the authenticated party; end users are
// identified by the opaque ids it sends in request payloads.
func GenerateServiceToken(botID string, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"bot_id": botID,
		"exp":    time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ExtractBotIDFromToken validates the Authorization header and returns the
// calling bot's id.
func ExtractBotIDFromToken(c *fiber.Ctx, cfg *config.Config) (string, error) {
	tokenString := c.Get("Authorization")
	if tokenString == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Missing authorization token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	botID, ok := claims["bot_id"].(string)
	if !ok || botID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid bot ID in token")
	}

	return botID, nil
}
