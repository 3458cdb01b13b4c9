package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"deskwarrior/backend/config"
	"deskwarrior/backend/services"
	"deskwarrior/backend/utils"
)

type UserController struct {
	Svc *services.FlashcardService
	Cfg *config.Config
}

func NewUserController(svc *services.FlashcardService, cfg *config.Config) *UserController {
	return &UserController{Svc: svc, Cfg: cfg}
}

type SetTagInput struct {
	Raw string `json:"raw" example:"Desk Warrior #1"`
}

type SetIntervalInput struct {
	Minutes int `json:"minutes" example:"45" enums:"30,45,60"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns display tag, premium state, interval and streak
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	profile, err := uc.Svc.GetProfile(c.Params("id"), time.Now().UTC())
	if err != nil {
		return utils.InternalServerError(c, "Could not read profile")
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// GetSummary godoc
// @Summary Get today's totals
// @Description Returns per-exercise totals and points for the current day
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/summary [get]
func (uc *UserController) GetSummary(c *fiber.Ctx) error {
	summary, err := uc.Svc.DailySummary(c.Params("id"), time.Now().UTC())
	if err != nil {
		return utils.InternalServerError(c, "Could not read summary")
	}
	return utils.Success(c, fiber.StatusOK, summary)
}

// SetTag godoc
// @Summary Set display tag
// @Description Sanitizes the raw input to the fixed tag format; never rejects
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param input body SetTagInput true "Raw tag text"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/tag [put]
func (uc *UserController) SetTag(c *fiber.Ctx) error {
	var input SetTagInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	tag, err := uc.Svc.SetDisplayTag(c.Params("id"), input.Raw, time.Now().UTC())
	if err != nil {
		return utils.InternalServerError(c, "Could not set tag")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"display_tag": tag})
}

// CreateGuest godoc
// @Summary Create a guest user
// @Description Mints a fresh user id for front ends without stable identity
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/guest [post]
func (uc *UserController) CreateGuest(c *fiber.Ctx) error {
	profile, err := uc.Svc.CreateGuest(time.Now().UTC())
	if err != nil {
		return utils.InternalServerError(c, "Could not create guest")
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// ActivatePremium godoc
// @Summary Activate premium
// @Description Post-payment activation stub; the invoice flow lives in the front end
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/premium [post]
func (uc *UserController) ActivatePremium(c *fiber.Ctx) error {
	profile, err := uc.Svc.ActivatePremium(c.Params("id"), time.Now().UTC())
	if err != nil {
		return utils.InternalServerError(c, "Could not activate premium")
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// SetInterval godoc
// @Summary Set reminder interval
// @Description Premium users pick 30/45/60 minutes; free tier is fixed at 60
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param input body SetIntervalInput true "Interval in minutes"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/interval [put]
func (uc *UserController) SetInterval(c *fiber.Ctx) error {
	var input SetIntervalInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	profile, err := uc.Svc.SetInterval(c.Params("id"), input.Minutes, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPremiumRequired):
			return utils.Forbidden(c, "Custom intervals require premium")
		case errors.Is(err, services.ErrInvalidInterval):
			return utils.BadRequest(c, "Interval must be one of 30, 45, 60")
		default:
			return utils.InternalServerError(c, "Could not set interval")
		}
	}
	return utils.Success(c, fiber.StatusOK, profile)
}
