package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"deskwarrior/backend/config"
	"deskwarrior/backend/services"
	"deskwarrior/backend/utils"
)

type FlashcardController struct {
	Svc *services.FlashcardService
	Cfg *config.Config
}

func NewFlashcardController(svc *services.FlashcardService, cfg *config.Config) *FlashcardController {
	return &FlashcardController{Svc: svc, Cfg: cfg}
}

type RequestCardInput struct {
	UserID string `json:"user_id"`
}

type CompleteInput struct {
	UserID string `json:"user_id"`
	ChatID string `json:"chat_id"`
	TaskID int64  `json:"task_id"`
	Kind   string `json:"kind"`
	Amount int    `json:"amount"`
	Points int    `json:"points"`
}

// RequestCard godoc
// @Summary Draw a flashcard
// @Description Returns a wellness tip or an exercise card; exercise cards arm the completion gate
// @Tags flashcards
// @Accept json
// @Produce json
// @Param input body RequestCardInput true "Card request"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /flashcards [post]
func (fc *FlashcardController) RequestCard(c *fiber.Ctx) error {
	var input RequestCardInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.UserID == "" {
		return utils.BadRequest(c, "user_id is required")
	}

	card, err := fc.Svc.RequestCard(input.UserID, time.Now().UTC())
	if err != nil {
		return utils.InternalServerError(c, "Could not issue card")
	}

	return utils.Success(c, fiber.StatusOK, card)
}

// Complete godoc
// @Summary Report a completed exercise
// @Description Validates the done tap against the pending task and awards points
// @Tags flashcards
// @Accept json
// @Produce json
// @Param input body CompleteInput true "Task reference echoed from the card"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /flashcards/complete [post]
func (fc *FlashcardController) Complete(c *fiber.Ctx) error {
	var input CompleteInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.UserID == "" || input.ChatID == "" {
		return utils.BadRequest(c, "user_id and chat_id are required")
	}

	ref := services.CompletionRef{
		TaskID: input.TaskID,
		Kind:   input.Kind,
		Amount: input.Amount,
		Points: input.Points,
	}
	res, err := fc.Svc.AttemptCompletion(input.UserID, input.ChatID, ref, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoActiveTask):
			return utils.NotFound(c, "Nothing to log — grab a new card first")
		case errors.Is(err, services.ErrTooEarly):
			return utils.BadRequest(c, "Too early — keep going and tap Done after the timer")
		default:
			return utils.InternalServerError(c, "Could not record completion")
		}
	}

	return utils.Success(c, fiber.StatusOK, res)
}
