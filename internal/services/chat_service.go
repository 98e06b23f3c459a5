package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/crypto"
	"github.com/pairly-app/pairly-backend/internal/dto"
	"github.com/pairly-app/pairly-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrRoomNotFound     = errors.New("chat room not found")
	ErrNotParticipant   = errors.New("not a participant of this room")
	ErrEmptyMessage     = errors.New("message content is required")
	ErrRoomNameRequired = errors.New("room name is required")
)

// Notifier is the fan-out hook the chat service fires after a message is
// persisted. Implementations must tolerate rooms whose membership changed
// moments earlier.
type Notifier interface {
	NotifyParticipants(ctx context.Context, roomID, excludeSenderID uuid.UUID, text string) error
}

// ChatService gates room creation on visibility edges and message traffic
// on membership. Message content is encrypted before it reaches the store.
type ChatService struct {
	db       *gorm.DB
	cipher   crypto.MessageCipher
	notifier Notifier
	users    *UserService
	pageSize int
}

func NewChatService(db *gorm.DB, cipher crypto.MessageCipher, notifier Notifier, users *UserService, pageSize int) *ChatService {
	if pageSize < 1 {
		pageSize = 20
	}
	return &ChatService{db: db, cipher: cipher, notifier: notifier, users: users, pageSize: pageSize}
}

// CreateRoom dedupes the invitee list, drops the creator from it, verifies
// every invitee exists, then keeps only invitees the creator holds a
// Visible edge to. Unmatched invitees are dropped silently; a room holding
// only the creator is valid.
func (s *ChatService) CreateRoom(ctx context.Context, creatorID uuid.UUID, name string, candidateIDs []uuid.UUID) (*dto.RoomResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrRoomNameRequired
	}

	seen := map[uuid.UUID]bool{creatorID: true}
	invitees := make([]uuid.UUID, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		invitees = append(invitees, id)
	}

	if len(invitees) > 0 {
		ok, err := s.users.AllExist(ctx, invitees)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUserNotFound
		}

		var visible []models.UserVisibility
		err = s.db.WithContext(ctx).
			Where("source_user_id = ? AND target_user_id IN ? AND visibility = ?",
				creatorID, invitees, models.VisibilityVisible).
			Find(&visible).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load visibility: %w", err)
		}
		matched := make(map[uuid.UUID]bool, len(visible))
		for _, edge := range visible {
			matched[edge.TargetUserID] = true
		}
		kept := invitees[:0]
		for _, id := range invitees {
			if matched[id] {
				kept = append(kept, id)
			}
		}
		invitees = kept
	}

	room := models.ChatRoom{ID: uuid.New(), Name: name, CreatedBy: creatorID}
	memberIDs := append([]uuid.UUID{creatorID}, invitees...)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		participants := make([]models.ChatParticipant, len(memberIDs))
		for i, id := range memberIDs {
			participants[i] = models.ChatParticipant{ID: uuid.New(), RoomID: room.ID, UserID: id}
		}
		if err := tx.Create(&participants).Error; err != nil {
			return fmt.Errorf("failed to add participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.RoomResponse{
		ID:           room.ID,
		Name:         room.Name,
		CreatedBy:    creatorID,
		Participants: memberIDs,
		CreatedAt:    room.CreatedAt,
	}, nil
}

// ListRooms returns the rooms the user belongs to, newest first.
func (s *ChatService) ListRooms(ctx context.Context, userID uuid.UUID) ([]dto.RoomResponse, error) {
	var memberships []models.ChatParticipant
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	rooms := make([]dto.RoomResponse, 0, len(memberships))
	if len(memberships) == 0 {
		return rooms, nil
	}

	roomIDs := make([]uuid.UUID, len(memberships))
	for i, membership := range memberships {
		roomIDs[i] = membership.RoomID
	}
	var rows []models.ChatRoom
	err := s.db.WithContext(ctx).
		Preload("Participants").
		Where("id IN ?", roomIDs).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}

	for _, room := range rows {
		ids := make([]uuid.UUID, len(room.Participants))
		for i, participant := range room.Participants {
			ids[i] = participant.UserID
		}
		rooms = append(rooms, dto.RoomResponse{
			ID:           room.ID,
			Name:         room.Name,
			CreatedBy:    room.CreatedBy,
			Participants: ids,
			CreatedAt:    room.CreatedAt,
		})
	}
	return rooms, nil
}

// SendMessage stores the encrypted message for a current participant, then
// fans a notification out to the other participants. Fan-out failure is a
// logged warning, never a rollback of the stored message.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID uuid.UUID, content string) (*dto.MessageResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	isMember, err := s.isParticipant(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotParticipant
	}

	encrypted, err := s.cipher.Encrypt(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt message: %w", err)
	}

	message := models.ChatMessage{
		ID:       uuid.New(),
		RoomID:   roomID,
		SenderID: senderID,
		Content:  encrypted,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	if err := s.notifier.NotifyParticipants(ctx, roomID, senderID, "New message in "+room.Name); err != nil {
		slog.Warn("message notification fan-out failed",
			"room_id", roomID, "sender_id", senderID, "error", err)
	}

	return &dto.MessageResponse{
		ID:        message.ID,
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: message.CreatedAt,
	}, nil
}

// GetMessages returns one page of room history, newest first, strictly
// before the cursor. It over-fetches a single row to learn hasMore instead
// of counting the table. The requester must be a participant or an admin.
func (s *ChatService) GetMessages(ctx context.Context, roomID, requesterID uuid.UUID, cursor time.Time) (*dto.MessagesPageResponse, error) {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	isMember, err := s.isParticipant(ctx, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		requester, err := s.users.GetUser(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if !requester.IsAdmin() {
			return nil, ErrNotParticipant
		}
	}

	if cursor.IsZero() {
		cursor = time.Now()
	}

	var rows []models.ChatMessage
	err = s.db.WithContext(ctx).
		Where("room_id = ? AND created_at < ?", roomID, cursor).
		Order("created_at DESC").
		Limit(s.pageSize + 1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	hasMore := len(rows) > s.pageSize
	if hasMore {
		rows = rows[:s.pageSize]
	}

	page := &dto.MessagesPageResponse{
		Messages: make([]dto.MessageResponse, 0, len(rows)),
		HasMore:  hasMore,
	}
	for _, row := range rows {
		content, err := s.cipher.Decrypt(row.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt message %s: %w", row.ID, err)
		}
		page.Messages = append(page.Messages, dto.MessageResponse{
			ID:        row.ID,
			RoomID:    row.RoomID,
			SenderID:  row.SenderID,
			Content:   content,
			CreatedAt: row.CreatedAt,
		})
	}
	if len(rows) > 0 {
		page.NextCursor = rows[len(rows)-1].CreatedAt.Format(time.RFC3339Nano)
	}
	return page, nil
}

// LeaveRoom removes the user's membership. When the last participant
// leaves, the room and its messages are deleted inside the same
// transaction, so a racing send cannot attach to a half-deleted room.
func (s *ChatService) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&models.ChatParticipant{})
		if result.Error != nil {
			return fmt.Errorf("failed to leave room: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotParticipant
		}
		return deleteRoomIfEmpty(tx, roomID)
	})
}

// AdminRemoveParticipants force-removes members and applies the same
// empty-room cleanup as a voluntary leave.
func (s *ChatService) AdminRemoveParticipants(ctx context.Context, roomID uuid.UUID, userIDs []uuid.UUID) error {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("room_id = ? AND user_id IN ?", roomID, userIDs).Delete(&models.ChatParticipant{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove participants: %w", err)
		}
		return deleteRoomIfEmpty(tx, roomID)
	})
}

func (s *ChatService) getRoom(ctx context.Context, roomID uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.db.WithContext(ctx).First(&room, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	return &room, nil
}

func (s *ChatService) isParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

// deleteRoomIfEmpty deletes the room and its messages once no participants
// remain. It must run inside the transaction that removed the last member.
func deleteRoomIfEmpty(tx *gorm.DB, roomID uuid.UUID) error {
	var remaining int64
	if err := tx.Model(&models.ChatParticipant{}).Where("room_id = ?", roomID).Count(&remaining).Error; err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}
	if remaining > 0 {
		return nil
	}
	if err := tx.Where("room_id = ?", roomID).Delete(&models.ChatMessage{}).Error; err != nil {
		return fmt.Errorf("failed to delete room messages: %w", err)
	}
	if err := tx.Delete(&models.ChatRoom{}, "id = ?", roomID).Error; err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}
