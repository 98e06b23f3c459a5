package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/config"
	"github.com/pairly-app/pairly-backend/internal/dto"
	"github.com/pairly-app/pairly-backend/internal/middleware"
	"github.com/pairly-app/pairly-backend/internal/services"
)

type MatchHandler struct {
	matchService *services.MatchService
	cfg          *config.Config
}

func NewMatchHandler(matchService *services.MatchService, cfg *config.Config) *MatchHandler {
	return &MatchHandler{matchService: matchService, cfg: cfg}
}

func (h *MatchHandler) Submit(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SubmitQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.matchService.SubmitQuiz(c.UserContext(), userID, req.TargetUserID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfSubmission),
			errors.Is(err, services.ErrAlreadySubmitted),
			errors.Is(err, services.ErrAnswerCount),
			errors.Is(err, services.ErrQuizNotSetUp):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrQuizCorrupted):
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Quiz document corrupted",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to submit quiz",
		})
	}

	return c.JSON(resp)
}

func (h *MatchHandler) MatchPercent(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	percent, err := h.matchService.GetMatchPercent(c.UserContext(), userID, targetID)
	if err != nil {
		if errors.Is(err, services.ErrScoreNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Match percent not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load match percent",
		})
	}

	return c.JSON(dto.MatchPercentResponse{MatchPercent: percent})
}

func (h *MatchHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", h.cfg.MatchPageSize)

	items, err := h.matchService.ListMatches(c.UserContext(), userID, pageSize, page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list matches",
		})
	}

	return c.JSON(dto.MatchListResponse{Data: items, Page: page, PageSize: pageSize})
}

func (h *MatchHandler) Count(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	pageSize := c.QueryInt("page_size", h.cfg.MatchPageSize)

	pages, err := h.matchService.MatchesCount(c.UserContext(), userID, pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to count matches",
		})
	}

	return c.JSON(dto.MatchCountResponse{Pages: pages})
}

func (h *MatchHandler) Discover(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var excludeIDs []uuid.UUID
	if raw := c.Query("exclude"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
					Error: true, Message: "Invalid exclude id: " + part,
				})
			}
			excludeIDs = append(excludeIDs, id)
		}
	}

	resp, err := h.matchService.DiscoverCandidate(c.UserContext(), userID, excludeIDs)
	if err != nil {
		if errors.Is(err, services.ErrNoCandidates) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "No users found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to discover users",
		})
	}

	return c.JSON(resp)
}
