package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/dto"
	"github.com/pairly-app/pairly-backend/internal/middleware"
	"github.com/pairly-app/pairly-backend/internal/models"
	"github.com/pairly-app/pairly-backend/internal/services"
)

type QuizHandler struct {
	quizService *services.QuizService
}

func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (h *QuizHandler) Edit(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.EditQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.quizService.SetQuiz(c.UserContext(), userID, &req.Quiz); err != nil {
		if errors.Is(err, models.ErrInvalidQuiz) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to store quiz",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *QuizHandler) My(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	quiz, err := h.quizService.QuizForOwner(c.UserContext(), userID)
	if err != nil {
		return quizReadError(c, err)
	}

	return c.JSON(quiz)
}

func (h *QuizHandler) ForUser(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	quiz, err := h.quizService.QuizForOwner(c.UserContext(), targetID)
	if err != nil {
		return quizReadError(c, err)
	}

	return c.JSON(services.PublicView(targetID, quiz))
}

// quizReadError distinguishes a quiz that was never configured from a
// stored document that no longer decodes.
func quizReadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrQuizNotSetUp) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Quiz not set up",
		})
	}
	if errors.Is(err, services.ErrQuizCorrupted) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Quiz document corrupted",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Failed to load quiz",
	})
}
