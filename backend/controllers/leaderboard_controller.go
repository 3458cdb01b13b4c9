package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"deskwarrior/backend/config"
	"deskwarrior/backend/services"
	"deskwarrior/backend/utils"
)

type LeaderboardController struct {
	Svc *services.FlashcardService
	Cfg *config.Config
}

func NewLeaderboardController(svc *services.FlashcardService, cfg *config.Config) *LeaderboardController {
	return &LeaderboardController{Svc: svc, Cfg: cfg}
}

// GetLeaderboard godoc
// @Summary Get a chat leaderboard
// @Description Returns top scores for a chat, points descending; ties break on user id
// @Tags leaderboards
// @Accept json
// @Produce json
// @Param chatID path string true "Chat ID"
// @Param limit query int false "Max entries" default(10)
// @Success 200 {object} utils.SuccessResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /leaderboards/{chatID} [get]
func (lc *LeaderboardController) GetLeaderboard(c *fiber.Ctx) error {
	chatID := c.Params("chatID")
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if limit < 1 {
		limit = 10
	}

	board, err := lc.Svc.Leaderboard(chatID, limit, time.Now().UTC())
	if err != nil {
		return utils.InternalServerError(c, "Could not read leaderboard")
	}

	return utils.Success(c, fiber.StatusOK, board)
}
