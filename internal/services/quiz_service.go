package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/cache"
	"github.com/pairly-app/pairly-backend/internal/dto"
	"github.com/pairly-app/pairly-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrQuizNotSetUp  = errors.New("quiz not set up")
	ErrQuizCorrupted = errors.New("quiz document corrupted")
	ErrAnswerCount   = errors.New("answer count does not match question count")
)

// QuizService owns per-user quiz documents: validation, storage, retrieval
// and scoring. Reads go through the attached cache; SetQuiz is the only
// writer and invalidates the cached copy.
type QuizService struct {
	db    *gorm.DB
	cache cache.QuizCache
}

func NewQuizService(db *gorm.DB) *QuizService {
	s := &QuizService{db: db}
	s.cache = cache.NewPassthrough(s)
	return s
}

// UseCache swaps the default passthrough for a real cache. The cache must
// have been built around this service's LoadQuiz.
func (s *QuizService) UseCache(qc cache.QuizCache) {
	s.cache = qc
}

// SetQuiz validates and stores the owner's quiz document, replacing any
// previous version wholesale in a single statement.
func (s *QuizService) SetQuiz(ctx context.Context, ownerID uuid.UUID, quiz *models.Quiz) error {
	if err := quiz.Validate(); err != nil {
		return err
	}
	quiz.Version = models.QuizDocVersion

	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("failed to encode quiz: %w", err)
	}

	questionnaire := models.Questionnaire{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Quiz:    datatypes.JSON(data),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quiz", "updated_at"}),
	}).Create(&questionnaire).Error
	if err != nil {
		return fmt.Errorf("failed to store quiz: %w", err)
	}

	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		slog.Warn("quiz cache invalidation failed", "owner_id", ownerID, "error", err)
	}
	return nil
}

// LoadQuiz reads the owner's quiz document straight from the store. It is
// the loader behind the cache; QuizForOwner is the cache-aware entry point.
func (s *QuizService) LoadQuiz(ctx context.Context, ownerID uuid.UUID) (*models.Quiz, error) {
	var questionnaire models.Questionnaire
	if err := s.db.WithContext(ctx).First(&questionnaire, "owner_id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotSetUp
		}
		return nil, fmt.Errorf("failed to load questionnaire: %w", err)
	}
	if len(questionnaire.Quiz) == 0 {
		return nil, ErrQuizNotSetUp
	}

	var quiz models.Quiz
	if err := json.Unmarshal(questionnaire.Quiz, &quiz); err != nil {
		// A document that no longer decodes is corrupted, which is not
		// the same condition as never configured.
		return nil, fmt.Errorf("%w: %v", ErrQuizCorrupted, err)
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: document has no questions", ErrQuizCorrupted)
	}
	return &quiz, nil
}

// QuizForOwner returns the owner's quiz through the cache.
func (s *QuizService) QuizForOwner(ctx context.Context, ownerID uuid.UUID) (*models.Quiz, error) {
	return s.cache.GetQuiz(ctx, ownerID)
}

// HasQuiz reports whether the owner has a stored questionnaire, without
// decoding it.
func (s *QuizService) HasQuiz(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Questionnaire{}).Where("owner_id = ?", ownerID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check questionnaire: %w", err)
	}
	return count > 0, nil
}

// PublicView strips correct answers, per-question scores and the pass
// threshold so a player sees only questions and option texts.
func PublicView(ownerID uuid.UUID, quiz *models.Quiz) dto.QuizPublicView {
	questions := make([]dto.PublicQuizQuestion, len(quiz.Questions))
	for i, question := range quiz.Questions {
		options := make([]string, len(question.Options))
		for j, option := range question.Options {
			options[j] = option.Text
		}
		questions[i] = dto.PublicQuizQuestion{Text: question.Text, Options: options}
	}
	return dto.QuizPublicView{OwnerID: ownerID, Questions: questions}
}

// ScoreSubmission awards each question's score when the submitted option
// index equals the correct one, then reduces to a 0-100 percentage and the
// pass verdict. Pure computation, no store access.
func ScoreSubmission(quiz *models.Quiz, answers []int) (matchPercent int, passed bool, err error) {
	if len(answers) != len(quiz.Questions) {
		return 0, false, ErrAnswerCount
	}

	awarded := 0
	for i, question := range quiz.Questions {
		if answers[i] == question.CorrectOption {
			awarded += question.Score
		}
	}

	total := quiz.TotalScore()
	if total > 0 {
		matchPercent = int(math.Round(100 * float64(awarded) / float64(total)))
	}
	passed = awarded >= quiz.ScoreRequired
	return matchPercent, passed, nil
}
