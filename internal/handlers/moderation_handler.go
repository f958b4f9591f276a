package handlers

import (
	"errors"

	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/middleware"
	"github.com/devarena/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(m *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: m}
}

func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.moderationService.CreateReport(userID, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "report_id": report.ID})
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	status := c.Query("status")
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	reports, total, err := h.moderationService.ListReports(status, limit, offset)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load reports")
	}
	return c.JSON(fiber.Map{"reports": reports, "total": total})
}

func (h *ModerationHandler) ActionReport(c *fiber.Ctx) error {
	reportID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid report id")
	}

	var req dto.ActionReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.moderationService.ActionReport(reportID, &req); err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		return badRequest(c, err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}
