package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateRoomWithOwner вставляет комнату и ACTIVE/ADMIN участие владельца
// одной транзакцией: либо видны обе записи, либо ни одной.
func (d *Database) CreateRoomWithOwner(ctx context.Context, room *models.Room) (*models.Membership, error) {
	owner := &models.Membership{
		UserID: room.OwnerID,
		Role:   models.RoleAdmin,
		Status: models.StatusActive,
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(room).Error; err != nil {
			return err
		}

		owner.RoomID = room.ID
		return tx.Omit(clause.Associations).Create(owner).Error
	})
	if err != nil {
		return nil, err
	}

	return owner, nil
}

func (d *Database) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := d.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoomDetail загружает комнату с владельцем и активными участниками.
func (d *Database) GetRoomDetail(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := d.db.WithContext(ctx).
		Preload("Owner").
		Preload("Participants", "status = ?", models.StatusActive, func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Participants.User").
		First(&room, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (d *Database) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := d.db.WithContext(ctx).
		Preload("Owner").
		Order("created_at DESC").
		Find(&rooms).Error
	return rooms, err
}

// CountActiveMembersByRoom возвращает число ACTIVE участников для каждой комнаты.
func (d *Database) CountActiveMembersByRoom(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		RoomID uuid.UUID
		Total  int64
	}

	err := d.db.WithContext(ctx).
		Model(&models.Membership{}).
		Select("room_id, COUNT(*) AS total").
		Where("status = ?", models.StatusActive).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.RoomID] = row.Total
	}
	return counts, nil
}

// DeleteRoomCascade удаляет сообщения, участия и саму комнату одной транзакцией.
// Порядок явный (дети, потом родитель) и не зависит от ON DELETE в схеме.
func (d *Database) DeleteRoomCascade(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "room_id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Membership{}, "room_id = ?", id).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Room{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
