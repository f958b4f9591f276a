package handlers

import (
	"errors"
	"log/slog"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/middleware"
	"github.com/devarena/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type BattleHandler struct {
	battleService *services.BattleService
}

func NewBattleHandler(battles *services.BattleService) *BattleHandler {
	return &BattleHandler{battleService: battles}
}

func battleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrBattleNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotParticipant):
		return errorJSON(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrBattleFull),
		errors.Is(err, services.ErrNotInProgress),
		errors.Is(err, services.ErrVotingClosed),
		errors.Is(err, services.ErrInvalidVote),
		errors.Is(err, services.ErrReviewNotReady),
		errors.Is(err, services.ErrCustomTimeNeeded):
		return badRequest(c, err.Error())
	default:
		return errorJSON(c, fiber.StatusInternalServerError, "Something went wrong")
	}
}

func (h *BattleHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreateBattleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	battle, err := h.battleService.CreateBattle(userID, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	slog.Info("battle created", "battle_id", battle.ID, "user_id", userID)
	return c.Status(fiber.StatusCreated).JSON(services.BattleToResponse(battle))
}

func (h *BattleHandler) List(c *fiber.Ctx) error {
	viewerID := middleware.OptionalUserID(c)

	resp, err := h.battleService.ListBattles(viewerID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load battles")
	}
	return c.JSON(resp)
}

func (h *BattleHandler) Join(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	battleID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid battle id")
	}

	battle, err := h.battleService.JoinBattle(userID, battleID)
	if err != nil {
		return battleError(c, err)
	}
	return c.JSON(services.BattleToResponse(battle))
}

func (h *BattleHandler) Arena(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	battleID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid battle id")
	}

	battle, isCreator, err := h.battleService.Arena(userID, battleID)
	if err != nil {
		return battleError(c, err)
	}
	return c.JSON(dto.ArenaResponse{
		Battle:    services.BattleToResponse(battle),
		IsCreator: isCreator,
	})
}

func (h *BattleHandler) Status(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	battleID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid battle id")
	}

	status, err := h.battleService.Status(userID, battleID)
	if err != nil {
		return battleError(c, err)
	}
	return c.JSON(status)
}

func (h *BattleHandler) Ready(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	battleID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid battle id")
	}

	battle, err := h.battleService.ToggleReady(userID, battleID)
	if err != nil {
		return battleError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"status":         battle.Status,
		"creator_ready":  battle.CreatorReady,
		"opponent_ready": battle.OpponentReady,
	})
}

func (h *BattleHandler) Submit(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	battleID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid battle id")
	}

	var req dto.SubmitCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	battle, err := h.battleService.SubmitCode(userID, battleID, req.Code)
	if err != nil {
		return battleError(c, err)
	}
	return c.JSON(dto.SubmitCodeResponse{Success: true, Status: battle.Status})
}

func (h *BattleHandler) Review(c *fiber.Ctx) error {
	viewerID := middleware.OptionalUserID(c)
	battleID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid battle id")
	}

	resp, err := h.battleService.Review(viewerID, battleID)
	if err != nil {
		return battleError(c, err)
	}
	return c.JSON(resp)
}

func (h *BattleHandler) Vote(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	battleID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid battle id")
	}

	var req dto.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.battleService.Vote(userID, battleID, req.VotedForID); err != nil {
		return battleError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *BattleHandler) AddComment(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	battleID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid battle id")
	}

	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := h.battleService.AddComment(userID, battleID, req.Content)
	if err != nil {
		if errors.Is(err, services.ErrEmptyComment) {
			return badRequest(c, err.Error())
		}
		return battleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
