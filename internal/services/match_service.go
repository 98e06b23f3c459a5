package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/dto"
	"github.com/pairly-app/pairly-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrSelfSubmission   = errors.New("cannot take your own quiz")
	ErrAlreadySubmitted = errors.New("quiz already submitted for this user")
	ErrScoreNotFound    = errors.New("match percent not found")
	ErrNoCandidates     = errors.New("no users found")
)

// MatchService turns quiz submissions into visibility edges and answers
// discovery and match-listing queries over them.
type MatchService struct {
	db      *gorm.DB
	quizzes *QuizService
}

func NewMatchService(db *gorm.DB, quizzes *QuizService) *MatchService {
	return &MatchService{db: db, quizzes: quizzes}
}

// SubmitQuiz scores the player's answers against the owner's quiz and
// persists the outcome: one QuizScore row plus the (player, owner)
// visibility edge, in a single transaction. The composite unique index on
// quiz scores rejects a second submission for the pair, so concurrent
// attempts cannot both land.
func (s *MatchService) SubmitQuiz(ctx context.Context, playerID, ownerID uuid.UUID, answers []int) (*dto.SubmitQuizResponse, error) {
	if playerID == ownerID {
		return nil, ErrSelfSubmission
	}

	quiz, err := s.quizzes.QuizForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	matchPercent, passed, err := ScoreSubmission(quiz, answers)
	if err != nil {
		return nil, err
	}

	state := models.VisibilityDismissed
	if passed {
		state = models.VisibilityVisible
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		score := models.QuizScore{
			ID:           uuid.New(),
			PlayerID:     playerID,
			OwnerID:      ownerID,
			MatchPercent: matchPercent,
			Passed:       passed,
		}
		if err := tx.Create(&score).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySubmitted
			}
			return fmt.Errorf("failed to store quiz score: %w", err)
		}
		return upsertVisibility(tx, playerID, ownerID, state)
	})
	if err != nil {
		return nil, err
	}

	return &dto.SubmitQuizResponse{MatchPercent: matchPercent, Passed: passed}, nil
}

// GetMatchPercent returns the viewer's recorded score against the owner.
// Self-lookup is rejected as not found without touching the store.
func (s *MatchService) GetMatchPercent(ctx context.Context, viewerID, ownerID uuid.UUID) (int, error) {
	if viewerID == ownerID {
		return 0, ErrScoreNotFound
	}

	var score models.QuizScore
	err := s.db.WithContext(ctx).
		Where("player_id = ? AND owner_id = ?", viewerID, ownerID).
		First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrScoreNotFound
		}
		return 0, fmt.Errorf("failed to load quiz score: %w", err)
	}
	return score.MatchPercent, nil
}

// DiscoverCandidate samples one user the viewer has never evaluated,
// uniformly at random, excluding the viewer and excludeIDs. Filtering and
// randomization both run in the store so large pools never reach memory.
func (s *MatchService) DiscoverCandidate(ctx context.Context, viewerID uuid.UUID, excludeIDs []uuid.UUID) (*dto.DiscoverResponse, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id <> ?", viewerID).
		Where("NOT EXISTS (SELECT 1 FROM user_visibilities v WHERE v.source_user_id = ? AND v.target_user_id = users.id)", viewerID)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var candidate models.User
	if err := query.Order("RANDOM()").Take(&candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCandidates
		}
		return nil, fmt.Errorf("failed to sample candidate: %w", err)
	}

	hasQuiz, err := s.quizzes.HasQuiz(ctx, candidate.ID)
	if err != nil {
		return nil, err
	}

	return &dto.DiscoverResponse{
		UserID:    candidate.ID,
		FirstName: candidate.FirstName,
		LastName:  candidate.LastName,
		Tags:      candidate.Tags,
		HasQuiz:   hasQuiz,
	}, nil
}

// ListMatches pages through the viewer's Visible edges, newest first, each
// enriched with the target's profile and the viewer's score against it.
func (s *MatchService) ListMatches(ctx context.Context, viewerID uuid.UUID, pageSize, page int) ([]dto.MatchItem, error) {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	var edges []models.UserVisibility
	err := s.db.WithContext(ctx).
		Preload("Target").
		Where("source_user_id = ? AND visibility = ?", viewerID, models.VisibilityVisible).
		Order("created_at DESC").
		Limit(pageSize).
		Offset(pageSize * (page - 1)).
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	items := make([]dto.MatchItem, 0, len(edges))
	if len(edges) == 0 {
		return items, nil
	}

	targetIDs := make([]uuid.UUID, len(edges))
	for i, edge := range edges {
		targetIDs[i] = edge.TargetUserID
	}
	var scores []models.QuizScore
	err = s.db.WithContext(ctx).
		Where("player_id = ? AND owner_id IN ?", viewerID, targetIDs).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load match percents: %w", err)
	}
	percentByTarget := make(map[uuid.UUID]int, len(scores))
	for _, score := range scores {
		percentByTarget[score.OwnerID] = score.MatchPercent
	}

	for _, edge := range edges {
		item := dto.MatchItem{
			UserID:    edge.TargetUserID,
			FirstName: edge.Target.FirstName,
			LastName:  edge.Target.LastName,
			Tags:      edge.Target.Tags,
			MatchedAt: edge.CreatedAt,
		}
		if percent, ok := percentByTarget[edge.TargetUserID]; ok {
			p := percent
			item.MatchPercent = &p
		}
		items = append(items, item)
	}
	return items, nil
}

// MatchesCount returns how many pages of Visible edges exist at pageSize.
func (s *MatchService) MatchesCount(ctx context.Context, viewerID uuid.UUID, pageSize int) (int, error) {
	if pageSize < 1 {
		pageSize = 1
	}
	var total int64
	err := s.db.WithContext(ctx).Model(&models.UserVisibility{}).
		Where("source_user_id = ? AND visibility = ?", viewerID, models.VisibilityVisible).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize)), nil
}
