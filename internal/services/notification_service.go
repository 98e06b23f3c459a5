package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/dto"
	"github.com/pairly-app/pairly-backend/internal/models"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService fans messages out to room participants and serves
// the per-user notification feed.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyParticipants inserts one notification per room participant,
// excluding the sender. Callers treat failures as non-fatal.
func (s *NotificationService) NotifyParticipants(ctx context.Context, roomID, excludeSenderID uuid.UUID, text string) error {
	var participants []models.ChatParticipant
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND user_id <> ?", roomID, excludeSenderID).
		Find(&participants).Error
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	if len(participants) == 0 {
		return nil
	}

	rid := roomID
	notifications := make([]models.Notification, len(participants))
	for i, participant := range participants {
		notifications[i] = models.Notification{
			ID:     uuid.New(),
			UserID: participant.UserID,
			Type:   models.NotificationTypeMessage,
			Body:   text,
			RoomID: &rid,
		}
	}
	if err := s.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}
	return nil
}

// List returns the user's notifications, newest first, plus the total count.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.NotificationResponse, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var rows []models.Notification
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]dto.NotificationResponse, len(rows))
	for i, notification := range rows {
		out[i] = dto.NotificationResponse{
			ID:        notification.ID,
			Type:      notification.Type,
			Body:      notification.Body,
			RoomID:    notification.RoomID,
			Read:      notification.ReadAt != nil,
			CreatedAt: notification.CreatedAt,
		}
	}
	return out, total, nil
}

// MarkRead stamps read_at on the user's own notification. Marking an
// already-read notification just refreshes the stamp.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
