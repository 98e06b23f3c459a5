package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSelfTarget         = errors.New("source and target must differ")
	ErrAlreadyBlocked     = errors.New("user is already blocked")
	ErrAlreadyDismissed   = errors.New("user is already dismissed")
	ErrNotBlocked         = errors.New("user is not blocked")
	ErrVisibilityNotFound = errors.New("visibility not found")
)

// VisibilityService mutates directional visibility edges. Every operation
// touches exactly one ordered (source, target) pair; the reverse direction
// is never read or written.
type VisibilityService struct {
	db    *gorm.DB
	users *UserService
}

func NewVisibilityService(db *gorm.DB, users *UserService) *VisibilityService {
	return &VisibilityService{db: db, users: users}
}

// upsertVisibility writes the single edge for (source, target). The
// composite unique index makes concurrent writers collapse onto one row,
// last write winning.
func upsertVisibility(tx *gorm.DB, source, target uuid.UUID, state models.Visibility) error {
	edge := models.UserVisibility{
		ID:           uuid.New(),
		SourceUserID: source,
		TargetUserID: target,
		Visibility:   state,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_user_id"}, {Name: "target_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"visibility", "updated_at"}),
	}).Create(&edge).Error
	if err != nil {
		return fmt.Errorf("failed to write visibility: %w", err)
	}
	return nil
}

// Get returns the edge for (source, target), or nil when none exists.
func (s *VisibilityService) Get(ctx context.Context, source, target uuid.UUID) (*models.UserVisibility, error) {
	var edge models.UserVisibility
	err := s.db.WithContext(ctx).
		Where("source_user_id = ? AND target_user_id = ?", source, target).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load visibility: %w", err)
	}
	return &edge, nil
}

// Block moves the edge to Blocked from any state except Blocked itself,
// creating the edge when none exists yet.
func (s *VisibilityService) Block(ctx context.Context, source, target uuid.UUID) error {
	if source == target {
		return ErrSelfTarget
	}
	existing, err := s.Get(ctx, source, target)
	if err != nil {
		return err
	}
	if existing != nil && existing.Visibility == models.VisibilityBlocked {
		return ErrAlreadyBlocked
	}
	return upsertVisibility(s.db.WithContext(ctx), source, target, models.VisibilityBlocked)
}

// Dismiss moves the edge to Dismissed. A Blocked edge stays blocked; only
// Unblock leaves that state.
func (s *VisibilityService) Dismiss(ctx context.Context, source, target uuid.UUID) error {
	if source == target {
		return ErrSelfTarget
	}
	existing, err := s.Get(ctx, source, target)
	if err != nil {
		return err
	}
	if existing != nil {
		switch existing.Visibility {
		case models.VisibilityDismissed:
			return ErrAlreadyDismissed
		case models.VisibilityBlocked:
			return ErrAlreadyBlocked
		}
	}
	return upsertVisibility(s.db.WithContext(ctx), source, target, models.VisibilityDismissed)
}

// Unblock returns a Blocked edge to Visible. It never creates an edge and
// rejects edges in any other state.
func (s *VisibilityService) Unblock(ctx context.Context, source, target uuid.UUID) error {
	if source == target {
		return ErrSelfTarget
	}
	existing, err := s.Get(ctx, source, target)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrVisibilityNotFound
	}
	if existing.Visibility != models.VisibilityBlocked {
		return ErrNotBlocked
	}
	err = s.db.WithContext(ctx).Model(existing).Update("visibility", models.VisibilityVisible).Error
	if err != nil {
		return fmt.Errorf("failed to unblock: %w", err)
	}
	return nil
}

// AdminSet force-writes an edge to any parseable state. Both users must
// exist; the user-facing state machine guards do not apply.
func (s *VisibilityService) AdminSet(ctx context.Context, source, target uuid.UUID, state string) (*models.UserVisibility, error) {
	parsed, err := models.ParseVisibility(state)
	if err != nil {
		return nil, err
	}
	if source == target {
		return nil, ErrSelfTarget
	}
	for _, id := range []uuid.UUID{source, target} {
		exists, err := s.users.UserExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrUserNotFound
		}
	}

	if err := upsertVisibility(s.db.WithContext(ctx), source, target, parsed); err != nil {
		return nil, err
	}
	edge, err := s.Get(ctx, source, target)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, ErrVisibilityNotFound
	}
	return edge, nil
}

// AdminDelete hard-deletes an edge by row id, resetting the pair to the
// never-interacted state.
func (s *VisibilityService) AdminDelete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.UserVisibility{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete visibility: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVisibilityNotFound
	}
	return nil
}

// AdminList pages all edges for inspection, newest first.
func (s *VisibilityService) AdminList(ctx context.Context, limit, offset int) ([]models.UserVisibility, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.UserVisibility{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count visibilities: %w", err)
	}
	var edges []models.UserVisibility
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&edges).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list visibilities: %w", err)
	}
	return edges, total, nil
}
