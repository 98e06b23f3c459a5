package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/dto"
	"github.com/pairly-app/pairly-backend/internal/middleware"
	"github.com/pairly-app/pairly-backend/internal/models"
	"github.com/pairly-app/pairly-backend/internal/services"
)

type VisibilityHandler struct {
	visibilityService *services.VisibilityService
}

func NewVisibilityHandler(visibilityService *services.VisibilityService) *VisibilityHandler {
	return &VisibilityHandler{visibilityService: visibilityService}
}

func (h *VisibilityHandler) Block(c *fiber.Ctx) error {
	sourceID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.VisibilityActionRequest
	if err := c.BodyParser(&req); err != nil || req.TargetUserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "target_user_id is required",
		})
	}

	if err := h.visibilityService.Block(c.UserContext(), sourceID, req.TargetUserID); err != nil {
		return visibilityWriteError(c, err, "Failed to block user")
	}

	return c.JSON(fiber.Map{"message": "User blocked successfully"})
}

func (h *VisibilityHandler) Dismiss(c *fiber.Ctx) error {
	sourceID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.VisibilityActionRequest
	if err := c.BodyParser(&req); err != nil || req.TargetUserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "target_user_id is required",
		})
	}

	if err := h.visibilityService.Dismiss(c.UserContext(), sourceID, req.TargetUserID); err != nil {
		return visibilityWriteError(c, err, "Failed to dismiss user")
	}

	return c.JSON(fiber.Map{"message": "User dismissed successfully"})
}

func (h *VisibilityHandler) Unblock(c *fiber.Ctx) error {
	sourceID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.VisibilityActionRequest
	if err := c.BodyParser(&req); err != nil || req.TargetUserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "target_user_id is required",
		})
	}

	if err := h.visibilityService.Unblock(c.UserContext(), sourceID, req.TargetUserID); err != nil {
		return visibilityWriteError(c, err, "Failed to unblock user")
	}

	return c.JSON(fiber.Map{"message": "User unblocked successfully"})
}

func visibilityWriteError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrSelfTarget),
		errors.Is(err, services.ErrAlreadyBlocked),
		errors.Is(err, services.ErrAlreadyDismissed),
		errors.Is(err, services.ErrNotBlocked):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrVisibilityNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}

func (h *VisibilityHandler) AdminSet(c *fiber.Ctx) error {
	var req dto.AdminSetVisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	edge, err := h.visibilityService.AdminSet(c.UserContext(), req.SourceUserID, req.TargetUserID, req.State)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnknownVisibility), errors.Is(err, services.ErrSelfTarget):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to set visibility",
		})
	}

	return c.JSON(edge)
}

func (h *VisibilityHandler) AdminDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid visibility ID",
		})
	}

	if err := h.visibilityService.AdminDelete(c.UserContext(), id); err != nil {
		if errors.Is(err, services.ErrVisibilityNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete visibility",
		})
	}

	return c.JSON(fiber.Map{"message": "Visibility deleted successfully"})
}

func (h *VisibilityHandler) AdminList(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit > 100 {
		limit = 100
	}

	edges, total, err := h.visibilityService.AdminList(c.UserContext(), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch visibilities",
		})
	}

	return c.JSON(fiber.Map{
		"visibilities": edges,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}
