package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
	"gorm.io/gorm/clause"
)

// SaveMessage подгружает профиль отправителя и сохраняет сообщение.
// Вставка идет последней: записанная строка всегда возвращается без ошибки.
func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	db := d.db.WithContext(ctx)

	var sender models.User
	if err := db.First(&sender, "id = ?", message.SenderID).Error; err != nil {
		return err
	}

	if err := db.Omit(clause.Associations).Create(message).Error; err != nil {
		return err
	}
	message.Sender = sender
	return nil
}

func (d *Database) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := d.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (d *Database) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id).Error
}

func (d *Database) CountRoomMessages(ctx context.Context, roomID uuid.UUID) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.Message{}).Where("room_id = ?", roomID).Count(&n).Error
	return n, err
}

// GetRoomMessages выбирает страницу от самых новых сообщений назад
// и возвращает ее в хронологическом порядке.
func (d *Database) GetRoomMessages(ctx context.Context, roomID uuid.UUID, offset, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Разворачиваем порядок, чтобы старые сообщения были первыми
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// CountUnread считает сообщения комнаты строго позже since. nil since означает "все".
func (d *Database) CountUnread(ctx context.Context, roomID uuid.UUID, since *time.Time) (int64, error) {
	query := d.db.WithContext(ctx).Model(&models.Message{}).Where("room_id = ?", roomID)
	if since != nil {
		query = query.Where("created_at > ?", *since)
	}

	var n int64
	err := query.Count(&n).Error
	return n, err
}

// LastMessage возвращает самое свежее сообщение комнаты или nil, если их нет.
func (d *Database) LastMessage(ctx context.Context, roomID uuid.UUID) (*models.Message, error) {
	var messages []models.Message
	err := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Preload("Sender").
		Find(&messages).Error
	if err != nil || len(messages) == 0 {
		return nil, err
	}
	return &messages[0], nil
}
