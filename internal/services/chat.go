package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MessagePage описывает одну страницу истории. Messages упорядочены от старых к новым.
type MessagePage struct {
	RoomID     uuid.UUID
	LastSeenAt *time.Time
	Page       int
	Limit      int
	Total      int64
	TotalPages int
	HasMore    bool
	Messages   []models.Message
}

type ChatService struct {
	access
}

func NewChatService(store Store) *ChatService {
	return &ChatService{access: newAccess(store)}
}

// ListMessages отдает страницу истории, отсчитывая страницы от последнего сообщения.
// Первая страница помечает комнату прочитанной.
func (s *ChatService) ListMessages(ctx context.Context, roomID, userID uuid.UUID, page, limit int) (*MessagePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	m, err := s.activeMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	previousSeen := m.LastSeenAt

	if page == 1 {
		if err := s.markRead(ctx, m); err != nil {
			return nil, err
		}
	}

	total, err := s.store.CountRoomMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}

	result := &MessagePage{
		RoomID:     roomID,
		LastSeenAt: previousSeen,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}

	// страница за концом истории; page*limit здесь может переполниться, поэтому сравниваем с числом страниц
	if int64(page-1) >= (total+int64(limit)-1)/int64(limit) {
		return result, nil
	}
	offset := (page - 1) * limit

	messages, err := s.store.GetRoomMessages(ctx, roomID, offset, limit)
	if err != nil {
		return nil, err
	}

	result.Messages = messages
	result.HasMore = int64(offset)+int64(len(messages)) < total
	return result, nil
}

// SendMessage сохраняет сообщение активного участника и возвращает его с профилем отправителя.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID uuid.UUID, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationError(map[string]string{"message": "Field is required"})
	}

	if _, err := s.activeMember(ctx, roomID, senderID); err != nil {
		return nil, err
	}

	message := &models.Message{
		RoomID:   roomID,
		SenderID: senderID,
		Body:     text,
	}
	if err := s.store.SaveMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// DeleteMessage удаляет сообщение. Только автор.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) (*models.Message, error) {
	message, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, translate(err, "chat not found")
	}

	if message.SenderID != userID {
		return nil, forbidden("you can only delete your own messages")
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return nil, err
	}
	return message, nil
}

// Authorize проверяет, что пользователь может читать комнату (подписка на трансляцию).
func (s *ChatService) Authorize(ctx context.Context, roomID, userID uuid.UUID) error {
	_, err := s.activeMember(ctx, roomID, userID)
	return err
}
