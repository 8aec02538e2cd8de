package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (d *Database) CreateMembership(ctx context.Context, m *models.Membership) error {
	return d.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

// GetMembership загружает участие вместе с комнатой.
func (d *Database) GetMembership(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	if err := d.db.WithContext(ctx).Preload("Room").First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (d *Database) FindMembership(ctx context.Context, roomID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := d.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListUserMemberships возвращает участия пользователя с заданным статусом вместе с комнатами.
func (d *Database) ListUserMemberships(ctx context.Context, userID uuid.UUID, status models.MembershipStatus) ([]models.Membership, error) {
	var ms []models.Membership
	err := d.db.WithContext(ctx).
		Preload("Room").
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at ASC").
		Find(&ms).Error
	return ms, err
}

// ListRoomMemberships возвращает участия комнаты с заданным статусом вместе с профилями.
func (d *Database) ListRoomMemberships(ctx context.Context, roomID uuid.UUID, status models.MembershipStatus) ([]models.Membership, error) {
	var ms []models.Membership
	err := d.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ? AND status = ?", roomID, status).
		Order("created_at ASC").
		Find(&ms).Error
	return ms, err
}

func (d *Database) CountRoomMemberships(ctx context.Context, roomID uuid.UUID, status models.MembershipStatus) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("room_id = ? AND status = ?", roomID, status).
		Count(&n).Error
	return n, err
}

func (d *Database) UpdateMembershipStatus(ctx context.Context, id uuid.UUID, status models.MembershipStatus) error {
	res := d.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (d *Database) DeleteMembership(ctx context.Context, id uuid.UUID) error {
	res := d.db.WithContext(ctx).Delete(&models.Membership{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastSeen выставляет last_seen_at для участия (room, user). Повторный вызов безопасен.
func (d *Database) TouchLastSeen(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error {
	return d.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("last_seen_at", at).Error
}
